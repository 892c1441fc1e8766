package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"office-assistant/internal/contacts"
	"office-assistant/internal/dispatch"
	"office-assistant/internal/llm"
	"office-assistant/internal/observer"
	"office-assistant/internal/pending"
	"office-assistant/internal/session"
)

type fakePolisher struct {
	out      string
	err      error
	inputs   []string
	histLens []int
}

func (f *fakePolisher) Polish(ctx context.Context, history []llm.Message, input string, rules Rules) (string, error) {
	f.inputs = append(f.inputs, input)
	f.histLens = append(f.histLens, len(history))
	return f.out, f.err
}

type fakeDispatcher struct {
	res          dispatch.Result
	err          error
	instructions []string
	hook         func()
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, instruction string, history []llm.Message) (dispatch.Result, error) {
	f.instructions = append(f.instructions, instruction)
	if f.hook != nil {
		f.hook()
	}
	return f.res, f.err
}

type fakeDirectory struct {
	contacts []contacts.Contact
	err      error
	calls    int
}

func (f *fakeDirectory) FetchContacts(ctx context.Context) ([]contacts.Contact, error) {
	f.calls++
	return f.contacts, f.err
}

type fakeJudge struct {
	verdict observer.Verdict
	calls   int
	tool    string
}

func (f *fakeJudge) Observe(ctx context.Context, userInput, toolName, rawOutput string) observer.Verdict {
	f.calls++
	f.tool = toolName
	return f.verdict
}

type fixture struct {
	reg   *session.Registry
	pol   *fakePolisher
	disp  *fakeDispatcher
	dir   *fakeDirectory
	judge *fakeJudge
	orch  *Orchestrator
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		reg:   session.NewRegistry(session.Options{}),
		pol:   &fakePolisher{},
		disp:  &fakeDispatcher{res: dispatch.Result{Output: "ok"}},
		dir:   &fakeDirectory{contacts: []contacts.Contact{{Name: "Alex", Address: "alex@x.com"}}},
		judge: &fakeJudge{},
	}
	f.orch = New(f.reg, f.pol, f.disp, f.dir, f.judge, opts)
	return f
}

func (f *fixture) pendingOf(t *testing.T, key string) (pending.Action, bool) {
	t.Helper()
	s, ok := f.reg.Get(key)
	if !ok {
		t.Fatalf("session %s not found", key)
	}
	return s.Pending().Get()
}

func (f *fixture) historyLen(key string) int {
	s, ok := f.reg.Get(key)
	if !ok {
		return 0
	}
	return s.History().Len()
}

func TestProcessTurn_TaskWithoutTimeAsksForTime(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Add task: call client"

	res := f.orch.ProcessTurn(context.Background(), "s", "remind me to call the client")
	if res.ToolUsed != WaitingForTime || res.Output != "What time should I set for this task?" {
		t.Fatalf("unexpected result: %+v", res)
	}
	a, ok := f.pendingOf(t, "s")
	if !ok || a.Kind != pending.KindTask || a.Details != "Add task: call client" {
		t.Fatalf("pending task not recorded: %+v", a)
	}
	if len(f.disp.instructions) != 0 {
		t.Fatalf("no dispatch expected")
	}
	if f.historyLen("s") != 0 {
		t.Fatalf("clarifying question must not enter the transcript")
	}
}

func TestProcessTurn_MeetingWithoutTimeAsksForTime(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Schedule a meeting with Jane"

	res := f.orch.ProcessTurn(context.Background(), "s", "set up a meeting with Jane")
	if res.ToolUsed != WaitingForTime || res.Output != "When would you like to schedule this meeting?" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if a, _ := f.pendingOf(t, "s"); a.Kind != pending.KindEvent {
		t.Fatalf("want pending event, got %+v", a)
	}
}

func TestProcessTurn_TaskWithTimeDispatches(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Add task: call client at 3 PM"

	res := f.orch.ProcessTurn(context.Background(), "s", "task call client 3pm")
	if res.ToolUsed != FinalOutput || res.Output != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.disp.instructions) != 1 || f.disp.instructions[0] != "Add task: call client at 3 PM" {
		t.Fatalf("unexpected dispatch: %+v", f.disp.instructions)
	}
}

func TestProcessTurn_ResumesPendingTask(t *testing.T) {
	f := newFixture(Options{})
	s := f.reg.Acquire("s")
	_ = s.Pending().Save(pending.KindTask, "Add task: call client")
	f.reg.Release(s)

	var pendingAtDispatch bool
	f.disp.hook = func() { _, pendingAtDispatch = s.Pending().Get() }
	f.pol.out = "something the model made up about a task"

	res := f.orch.ProcessTurn(context.Background(), "s", "3 PM")
	if len(f.disp.instructions) != 1 || f.disp.instructions[0] != "Add task: call client at 3 PM" {
		t.Fatalf("unexpected effective instruction: %+v", f.disp.instructions)
	}
	if pendingAtDispatch {
		t.Fatalf("pending action must be cleared before dispatch")
	}
	if _, ok := s.Pending().Get(); ok {
		t.Fatalf("pending action should stay cleared")
	}
	if res.ToolUsed != FinalOutput {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProcessTurn_NoDuplicateClarifyingQuestion(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Add task: call client"

	first := f.orch.ProcessTurn(context.Background(), "s", "add a task to call the client")
	if first.ToolUsed != WaitingForTime {
		t.Fatalf("unexpected first turn: %+v", first)
	}
	// the model keeps echoing the timeless task; the answer must still resume
	second := f.orch.ProcessTurn(context.Background(), "s", "3 PM")
	if second.ToolUsed == WaitingForTime {
		t.Fatalf("asked for the same slot twice: %+v", second)
	}
	if f.disp.instructions[0] != "Add task: call client at 3 PM" {
		t.Fatalf("unexpected instruction: %q", f.disp.instructions[0])
	}
	if f.pol.histLens[1] != 0 {
		t.Fatalf("polish history should not contain the clarifying exchange, got %d entries", f.pol.histLens[1])
	}
}

func TestProcessTurn_EmailUnresolvedRecipient(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Send email to Sam about the report"

	res := f.orch.ProcessTurn(context.Background(), "s", "email sam")
	if res.ToolUsed != WaitingForRecipient || res.Output != "Whom should I send this email to?" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.disp.instructions) != 0 {
		t.Fatalf("no dispatch expected")
	}
	if a, _ := f.pendingOf(t, "s"); a.Kind != pending.KindEmail {
		t.Fatalf("want pending email, got %+v", a)
	}
}

func TestProcessTurn_EmailNeedsConfirmation(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Send email to Alex: project is on track. Best regards, Pat"

	res := f.orch.ProcessTurn(context.Background(), "s", "email alex that the project is on track")
	if res.ToolUsed != WaitingForEmailConfirmation || res.Output != "Please confirm the email body before sending." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.disp.instructions) != 0 {
		t.Fatalf("no dispatch expected")
	}
}

func TestProcessTurn_ConfirmedEmailDispatches(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "Send email to Alex, user confirmed the body: project is on track."
	f.disp.res = dispatch.Result{Output: "sent", Steps: []dispatch.Step{{Tool: llm.ToolSendEmail, Observation: "Email sent to alex@x.com"}}}
	f.judge.verdict = observer.Judged("Your email to Alex was sent.")

	res := f.orch.ProcessTurn(context.Background(), "s", "yes, send it")
	if res.ToolUsed != llm.ToolSendEmail || res.Output != "Done. Let me know if you need anything else." {
		t.Fatalf("unexpected result: %+v", res)
	}
	// user input, dispatch output, judged text
	if f.historyLen("s") != 3 {
		t.Fatalf("want 3 transcript entries, got %d", f.historyLen("s"))
	}
}

func TestProcessTurn_DirectoryFailureAsksForRecipient(t *testing.T) {
	f := newFixture(Options{})
	f.dir.err = errors.New("backend down")
	f.pol.out = "Send email to Alex, confirmed"

	res := f.orch.ProcessTurn(context.Background(), "s", "email alex")
	if res.ToolUsed != WaitingForRecipient {
		t.Fatalf("directory failure should fall back to asking, got %+v", res)
	}
}

func TestProcessTurn_ObserverInconclusiveFallsBack(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "What's on my calendar?"
	f.disp.res = dispatch.Result{Output: "raw", Steps: []dispatch.Step{{Tool: llm.ToolAddEvent, Observation: "Meeting created successfully"}}}
	f.judge.verdict = observer.Inconclusive()

	res := f.orch.ProcessTurn(context.Background(), "s", "calendar?")
	if res.ToolUsed != Fallback || res.Output != "Action complete." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.judge.tool != llm.ToolAddEvent {
		t.Fatalf("judge saw tool %q", f.judge.tool)
	}
	if f.historyLen("s") != 2 {
		t.Fatalf("inconclusive verdict should not be appended, got %d entries", f.historyLen("s"))
	}
}

func TestProcessTurn_OnlyFirstStepIsJudged(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "hello"
	f.disp.res = dispatch.Result{Output: "raw", Steps: []dispatch.Step{
		{Tool: llm.ToolGetUserContacts, Observation: "[]"},
		{Tool: llm.ToolSendEmail, Observation: "sent"},
	}}
	f.judge.verdict = observer.Judged("ok")

	res := f.orch.ProcessTurn(context.Background(), "s", "hi")
	if f.judge.calls != 1 || res.ToolUsed != llm.ToolGetUserContacts {
		t.Fatalf("unexpected: calls=%d result=%+v", f.judge.calls, res)
	}
}

func TestProcessTurn_MalformedStepFallsBack(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "hello"
	f.disp.res = dispatch.Result{Output: "raw", Steps: []dispatch.Step{{Observation: "??"}}}

	res := f.orch.ProcessTurn(context.Background(), "s", "hi")
	if res.ToolUsed != Fallback || f.judge.calls != 0 {
		t.Fatalf("unexpected: %+v judge calls=%d", res, f.judge.calls)
	}
}

func TestProcessTurn_PolishFailureKeepsPendingByDefault(t *testing.T) {
	f := newFixture(Options{})
	s := f.reg.Acquire("s")
	_ = s.Pending().Save(pending.KindTask, "Add task: call client")
	f.reg.Release(s)
	f.pol.err = errors.New("model unavailable")

	res := f.orch.ProcessTurn(context.Background(), "s", "3 PM")
	if res.ToolUsed != Error || res.Output != "I couldn't process that. Can you clarify?" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := s.Pending().Get(); !ok {
		t.Fatalf("pending action should be preserved for a retry")
	}
	if len(f.disp.instructions) != 0 {
		t.Fatalf("no dispatch expected")
	}
}

func TestProcessTurn_PolishFailureClearsPendingWhenConfigured(t *testing.T) {
	f := newFixture(Options{ClearPendingOnPolishFailure: true})
	s := f.reg.Acquire("s")
	_ = s.Pending().Save(pending.KindTask, "Add task: call client")
	f.reg.Release(s)
	f.pol.err = errors.New("model unavailable")

	res := f.orch.ProcessTurn(context.Background(), "s", "3 PM")
	if res.ToolUsed != Error {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := s.Pending().Get(); ok {
		t.Fatalf("pending action should be cleared")
	}
}

func TestProcessTurn_DispatchFailureIsErrorResult(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "hello"
	f.disp.err = errors.New("tool pipeline crashed")

	res := f.orch.ProcessTurn(context.Background(), "s", "hi")
	if res.ToolUsed != Error || res.Output != "Sorry, I couldn't complete that request." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.historyLen("s") != 0 {
		t.Fatalf("failed dispatch should not touch the transcript")
	}
}

type slowPolisher struct{}

func (slowPolisher) Polish(ctx context.Context, history []llm.Message, input string, rules Rules) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProcessTurn_PolishTimeoutIsFailure(t *testing.T) {
	reg := session.NewRegistry(session.Options{})
	o := New(reg, slowPolisher{}, &fakeDispatcher{}, &fakeDirectory{}, &fakeJudge{}, Options{PolishTimeout: 10 * time.Millisecond})

	res := o.ProcessTurn(context.Background(), "s", "hi")
	if res.ToolUsed != Error {
		t.Fatalf("timeout should map to error result: %+v", res)
	}
}

func TestProcessTurn_SameSessionTurnsAreSerialized(t *testing.T) {
	f := newFixture(Options{})
	f.pol.out = "hello"
	var mu sync.Mutex
	active, maxActive := 0, 0
	f.disp.hook = func() {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.orch.ProcessTurn(context.Background(), "same", "hi")
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Fatalf("turns for one session overlapped: %d", maxActive)
	}
	if f.historyLen("same") != 16 {
		t.Fatalf("want 16 transcript entries, got %d", f.historyLen("same"))
	}
}

func TestDefaultRulesString(t *testing.T) {
	out := DefaultRules("Pat Lee").String()
	for _, want := range []string{"Task:", "Meeting:", "Email:", "- Tool: send_email,get_user_contacts", "Best regards, Pat Lee"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rules text missing %q:\n%s", want, out)
		}
	}
}

// The slow fakes answer after their deadline without reporting an error.
type slowDirectory struct{}

func (slowDirectory) FetchContacts(ctx context.Context) ([]contacts.Contact, error) {
	<-ctx.Done()
	return []contacts.Contact{{Name: "Alex", Address: "alex@x.com"}}, nil
}

type slowDispatcher struct{}

func (slowDispatcher) Dispatch(ctx context.Context, instruction string, history []llm.Message) (dispatch.Result, error) {
	<-ctx.Done()
	return dispatch.Result{Output: "late"}, nil
}

type slowJudge struct{}

func (slowJudge) Observe(ctx context.Context, userInput, toolName, rawOutput string) observer.Verdict {
	<-ctx.Done()
	return observer.Judged("late")
}

func TestProcessTurn_DirectoryTimeoutAsksForRecipient(t *testing.T) {
	reg := session.NewRegistry(session.Options{})
	pol := &fakePolisher{out: "Send email to Alex, confirmed: project is on track."}
	o := New(reg, pol, &fakeDispatcher{}, slowDirectory{}, &fakeJudge{}, Options{DirectoryTimeout: 10 * time.Millisecond})

	res := o.ProcessTurn(context.Background(), "s", "email alex")
	if res.ToolUsed != WaitingForRecipient {
		t.Fatalf("directory timeout should ask for a recipient, got %+v", res)
	}
}

func TestProcessTurn_DispatchTimeoutIsError(t *testing.T) {
	reg := session.NewRegistry(session.Options{})
	pol := &fakePolisher{out: "Add task: call client at 3 PM"}
	o := New(reg, pol, slowDispatcher{}, &fakeDirectory{}, &fakeJudge{}, Options{DispatchTimeout: 10 * time.Millisecond})

	res := o.ProcessTurn(context.Background(), "s", "task call client 3pm")
	if res.ToolUsed != Error || res.Output != "Sorry, I couldn't complete that request." {
		t.Fatalf("dispatch timeout should map to error result: %+v", res)
	}
	if s, ok := reg.Get("s"); ok && s.History().Len() != 0 {
		t.Fatalf("timed out dispatch should not touch the transcript, got %d entries", s.History().Len())
	}
}

func TestProcessTurn_JudgeTimeoutFallsBack(t *testing.T) {
	reg := session.NewRegistry(session.Options{})
	pol := &fakePolisher{out: "Add task: call client at 3 PM"}
	disp := &fakeDispatcher{res: dispatch.Result{Output: "raw", Steps: []dispatch.Step{{Tool: llm.ToolCreateTask, Observation: "Task created"}}}}
	o := New(reg, pol, disp, &fakeDirectory{}, slowJudge{}, Options{JudgeTimeout: 10 * time.Millisecond})

	res := o.ProcessTurn(context.Background(), "s", "task call client 3pm")
	if res.ToolUsed != Fallback || res.Output != "Action complete." {
		t.Fatalf("judge timeout should fall back, got %+v", res)
	}
}
