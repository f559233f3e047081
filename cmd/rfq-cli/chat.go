// cmd/rfq-cli/chat.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
)

type conversationEngine interface {
	NextStep(ctx context.Context, req orchestrator.StepRequest) (models.NextStep, error)
	GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*orchestrator.AuditedResult, error)
	Refine(ctx context.Context, doc models.Document, feedback string, creds models.Credentials) (models.Document, error)
}

// prompter reads one line of user input per prompt.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

type chatRunner struct {
	engine conversationEngine
	in     *prompter
	out    io.Writer
	creds  models.Credentials
	budget int
	audit  bool
}

func (r *chatRunner) run(ctx context.Context, category models.Category) error {
	var session models.Session
	if err := session.Begin(category); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Starting a %s project. Press Ctrl+D to quit.\n\n", category.Title())

	for !session.Done() {
		step, err := r.engine.NextStep(ctx, orchestrator.StepRequest{
			History:        session.History,
			Category:       session.Category,
			Credentials:    r.creds,
			QuestionBudget: r.budget,
		})
		if err != nil {
			return fmt.Errorf("next step: %w", err)
		}
		if err := session.Apply(step); err != nil {
			return err
		}
		if session.Pending == nil {
			break
		}

		answer, err := r.answer(*session.Pending, session.History.Len()+1)
		if err != nil {
			return err
		}
		if err := session.Answer(answer); err != nil {
			return err
		}
	}

	if r.audit {
		res, err := r.engine.GenerateAudited(ctx, session.History, session.Category, r.creds)
		if err != nil {
			return fmt.Errorf("generate document: %w", err)
		}
		if err := session.Replace(res.Document); err != nil {
			return err
		}
		r.printAudit(res)
	}

	fmt.Fprintf(r.out, "\n%s\n", models.Render(session.Result))
	return r.refineLoop(ctx, &session)
}

func (r *chatRunner) answer(q models.Question, n int) (string, error) {
	fmt.Fprintf(r.out, "Q%d. %s\n", n, q.Text)
	if q.InputType != models.InputSelect {
		for {
			answer, err := r.in.ask("> ")
			if err != nil {
				return "", err
			}
			if answer == "" {
				continue
			}
			if q.InputType == models.InputNumber {
				if _, err := strconv.ParseFloat(answer, 64); err != nil {
					fmt.Fprintln(r.out, "Please enter a number.")
					continue
				}
			}
			return answer, nil
		}
	}

	for i, opt := range q.Options {
		fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt)
	}
	for {
		answer, err := r.in.ask("> ")
		if err != nil {
			return "", err
		}
		if i, err := strconv.Atoi(answer); err == nil && i >= 1 && i <= len(q.Options) {
			return q.Options[i-1], nil
		}
		for _, opt := range q.Options {
			if strings.EqualFold(opt, answer) {
				return opt, nil
			}
		}
		fmt.Fprintf(r.out, "Choose 1-%d.\n", len(q.Options))
	}
}

func (r *chatRunner) printAudit(res *orchestrator.AuditedResult) {
	switch res.Outcome() {
	case orchestrator.OutcomePassed:
		fmt.Fprintln(r.out, "\nAudit passed.")
	case orchestrator.OutcomeRefined:
		fmt.Fprintf(r.out, "\nAudit found %d issue(s); the document was refined.\n", len(res.Verdict.Issues))
	case orchestrator.OutcomeRefineFailed:
		fmt.Fprintf(r.out, "\nAudit found %d issue(s); refinement failed, showing the original.\n", len(res.Verdict.Issues))
	case orchestrator.OutcomeUnaudited:
		fmt.Fprintln(r.out, "\nAudit unavailable; showing the unaudited document.")
	case orchestrator.OutcomeFallback:
		fmt.Fprintln(r.out, "\nGeneration unavailable; showing a template document.")
	}
	if res.Verdict != nil {
		for _, issue := range res.Verdict.Issues {
			fmt.Fprintf(r.out, "  - %s\n", issue)
		}
	}
}

// refineLoop applies free-text edits until the user enters an empty line.
func (r *chatRunner) refineLoop(ctx context.Context, session *models.Session) error {
	for {
		feedback, err := r.in.ask("Describe a change, or press Enter to finish: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if feedback == "" {
			return nil
		}

		doc, err := r.engine.Refine(ctx, session.Result, feedback, r.creds)
		if err != nil {
			fmt.Fprintf(r.out, "Refinement failed: %v\n", err)
			continue
		}
		if err := session.Replace(doc); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "\n%s\n", models.Render(doc))
	}
}
