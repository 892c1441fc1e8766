package dialog

import (
	"context"
	"log"
	"time"

	"office-assistant/internal/classify"
	"office-assistant/internal/contacts"
	"office-assistant/internal/dispatch"
	"office-assistant/internal/llm"
	"office-assistant/internal/observer"
	"office-assistant/internal/pending"
	"office-assistant/internal/session"
)

// tool_used values other than real tool names.
const (
	WaitingForTime              = "waiting_for_time"
	WaitingForRecipient         = "waiting_for_recipient"
	WaitingForEmailConfirmation = "waiting_for_email_confirmation"
	FinalOutput                 = "final_output"
	Fallback                    = "fallback"
	Error                       = "error"
)

const (
	msgPolishFailed   = "I couldn't process that. Can you clarify?"
	msgAskTaskTime    = "What time should I set for this task?"
	msgAskMeetingTime = "When would you like to schedule this meeting?"
	msgAskRecipient   = "Whom should I send this email to?"
	msgAskConfirm     = "Please confirm the email body before sending."
	msgDispatchFailed = "Sorry, I couldn't complete that request."
	msgDone           = "Done. Let me know if you need anything else."
	msgActionComplete = "Action complete."
)

type TurnResult struct {
	Output   string `json:"output"`
	ToolUsed string `json:"tool_used"`
}

type Polisher interface {
	Polish(ctx context.Context, history []llm.Message, input string, rules Rules) (string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, instruction string, history []llm.Message) (dispatch.Result, error)
}

type Judge interface {
	Observe(ctx context.Context, userInput, toolName, rawOutput string) observer.Verdict
}

type Options struct {
	Rules      Rules
	Classifier classify.Classifier
	Resolver   contacts.Resolver

	// Per-call timeouts; zero means no timeout beyond the caller's context.
	PolishTimeout    time.Duration
	DispatchTimeout  time.Duration
	DirectoryTimeout time.Duration
	JudgeTimeout     time.Duration

	// ClearPendingOnPolishFailure drops a pending action when polishing
	// fails. By default it is kept so the next turn can still resume it.
	ClearPendingOnPolishFailure bool
}

// Orchestrator is the per-turn dialogue state machine.
type Orchestrator struct {
	sessions   *session.Registry
	polisher   Polisher
	dispatcher Dispatcher
	directory  contacts.Directory
	judge      Judge
	opts       Options
}

func New(sessions *session.Registry, polisher Polisher, dispatcher Dispatcher, directory contacts.Directory, judge Judge, opts Options) *Orchestrator {
	if opts.Classifier == nil {
		opts.Classifier = classify.Keyword{}
	}
	if opts.Resolver == nil {
		opts.Resolver = contacts.Substring{}
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules("")
	}
	return &Orchestrator{
		sessions:   sessions,
		polisher:   polisher,
		dispatcher: dispatcher,
		directory:  directory,
		judge:      judge,
		opts:       opts,
	}
}

// ProcessTurn handles one user turn for the session identified by key.
// Turns for the same key are serialized.
func (o *Orchestrator) ProcessTurn(ctx context.Context, key, input string) TurnResult {
	sess := o.sessions.Acquire(key)
	defer o.sessions.Release(sess)
	sess.Lock()
	defer sess.Unlock()

	res := o.turn(ctx, sess, input)
	log.Printf("💬 [%s] turn done: tool_used=%s", key, res.ToolUsed)
	return res
}

func (o *Orchestrator) turn(ctx context.Context, sess *session.Session, input string) TurnResult {
	slot := sess.Pending()
	act, hasPending := slot.Get()
	past := sess.History().Messages()

	polished, err := o.polish(ctx, past, input)
	if err != nil {
		log.Printf("❌ [%s] polish failed: %v", sess.Key(), err)
		if hasPending && o.opts.ClearPendingOnPolishFailure {
			_ = slot.Clear()
		}
		return TurnResult{Output: msgPolishFailed, ToolUsed: Error}
	}

	var instruction string
	if hasPending {
		// the new input is the missing slot value; the polished text is not used
		instruction = act.Details + " at " + input
		_ = slot.Clear()
		log.Printf("⏯️ [%s] resuming pending %s", sess.Key(), act.Kind)
	} else {
		c := o.opts.Classifier.Classify(polished)
		switch {
		case c.MentionsTask && !c.HasTime:
			return o.park(slot, pending.KindTask, polished, msgAskTaskTime, WaitingForTime)
		case c.MentionsMeeting && !c.HasTime:
			return o.park(slot, pending.KindEvent, polished, msgAskMeetingTime, WaitingForTime)
		case c.MentionsEmailSend:
			if _, ok := o.resolveRecipient(ctx, polished); !ok {
				return o.park(slot, pending.KindEmail, polished, msgAskRecipient, WaitingForRecipient)
			}
			if !c.Confirmed {
				return o.park(slot, pending.KindEmail, polished, msgAskConfirm, WaitingForEmailConfirmation)
			}
		}
		instruction = polished
	}

	return o.dispatch(ctx, sess, input, instruction, past)
}

func (o *Orchestrator) polish(ctx context.Context, past []llm.Message, input string) (string, error) {
	pctx, cancel := withTimeout(ctx, o.opts.PolishTimeout)
	defer cancel()
	out, err := o.polisher.Polish(pctx, past, input, o.opts.Rules)
	if err == nil {
		err = pctx.Err()
	}
	return out, err
}

// park stores the request in the pending slot and returns the clarifying question.
func (o *Orchestrator) park(slot pending.Store, kind pending.Kind, details, question, toolUsed string) TurnResult {
	_ = slot.Save(kind, details)
	return TurnResult{Output: question, ToolUsed: toolUsed}
}

// resolveRecipient treats a directory failure as "no recipient".
func (o *Orchestrator) resolveRecipient(ctx context.Context, text string) (contacts.Contact, bool) {
	if o.directory == nil {
		return contacts.Contact{}, false
	}
	dctx, cancel := withTimeout(ctx, o.opts.DirectoryTimeout)
	defer cancel()
	dir, err := o.directory.FetchContacts(dctx)
	if err == nil {
		err = dctx.Err()
	}
	if err != nil {
		log.Printf("⚠️ contact directory unavailable: %v", err)
		return contacts.Contact{}, false
	}
	return o.opts.Resolver.Resolve(text, dir)
}

func (o *Orchestrator) dispatch(ctx context.Context, sess *session.Session, input, instruction string, past []llm.Message) TurnResult {
	dctx, cancel := withTimeout(ctx, o.opts.DispatchTimeout)
	res, err := o.dispatcher.Dispatch(dctx, instruction, past)
	if err == nil {
		// a late answer counts as a timeout
		err = dctx.Err()
	}
	cancel()
	if err != nil {
		log.Printf("❌ [%s] dispatch failed: %v", sess.Key(), err)
		return TurnResult{Output: msgDispatchFailed, ToolUsed: Error}
	}

	h := sess.History()
	h.AppendUser(input)
	h.AppendAssistant(res.Output)

	if len(res.Steps) == 0 {
		return TurnResult{Output: res.Output, ToolUsed: FinalOutput}
	}

	// only the first tool call is judged
	step := res.Steps[0]
	if step.Tool == "" {
		return TurnResult{Output: msgActionComplete, ToolUsed: Fallback}
	}
	jctx, cancel := withTimeout(ctx, o.opts.JudgeTimeout)
	verdict := o.judge.Observe(jctx, input, step.Tool, step.Observation)
	if jctx.Err() != nil {
		verdict = observer.Inconclusive()
	}
	cancel()
	if !verdict.Complete {
		return TurnResult{Output: msgActionComplete, ToolUsed: Fallback}
	}
	h.AppendAssistant(verdict.Text)
	return TurnResult{Output: msgDone, ToolUsed: step.Tool}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
