package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"

	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/template"
)

// Action is one repair step the model can request.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
	ActionDone   Action = "done"
)

// FixParams describes one repair run.
type FixParams struct {
	Project string
	Logs    string // Deployment log output driving the repair
}

// HistoryEntry is one executed (or rejected) repair action. The accumulated
// history is rendered back into every subsequent round's prompt.
type HistoryEntry struct {
	Round   int
	Action  Action
	Target  string
	OK      bool
	Summary string
}

// FixResult is the outcome of a repair run.
type FixResult struct {
	Rounds  int
	Done    bool // Model declared the repair finished before the round cap
	History []HistoryEntry
	Files   []project.GeneratedFile
}

// fixReply is the JSON contract for one repair round.
type fixReply struct {
	Action      Action `json:"action"`
	TargetFile  string `json:"targetFile"`
	NewPath     string `json:"newPath"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// Fix runs the log-driven repair loop. Each round sends the logs, the file
// name list, the previous round's read content if there was one, and the full
// action history, then executes the single action the model picked. A reply
// the loop cannot execute (bad JSON, unknown action, missing target) is
// reported back as a failed entry and the loop continues; only transport and
// persistence failures abort. The round cap bounds every run.
func (e *Engine) Fix(ctx context.Context, params FixParams) (*FixResult, error) {
	files, err := e.loadCollection(ctx, params.Project)
	if err != nil {
		return nil, err
	}

	result := &FixResult{}
	lastAction := "none"
	var lastRead *project.GeneratedFile

	for round := 1; round <= e.maxFix; round++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("fix cancelled: %w", err)
		}

		fileContent := ""
		if lastRead != nil {
			fileContent = fmt.Sprintf("Contents of %s:\n```\n%s\n```\n\n", lastRead.Name, lastRead.Code)
		}
		lastRead = nil

		userTurn := template.Render(template.FixRound, template.Variables{
			Logs:        params.Logs,
			FileList:    template.FormatFileList(files.Names()),
			FileContent: fileContent,
			LastAction:  lastAction,
			History:     formatFixHistory(result.History),
		})

		raw, err := e.chat(ctx, e.fixModel, "fix", []llm.Message{
			{Role: "system", Content: template.FixSystem},
			{Role: "user", Content: userTurn},
		})
		if err != nil {
			return result, fmt.Errorf("fix round %d failed: %w", round, err)
		}

		var entry HistoryEntry
		var diff string
		reply, perr := parseFixReply(raw)
		if perr != nil {
			entry = HistoryEntry{Round: round, Action: "invalid", OK: false, Summary: perr.Error()}
		} else {
			entry, lastRead, diff, err = e.applyFixAction(ctx, params.Project, files, reply)
			if err != nil {
				return result, err
			}
			entry.Round = round
		}

		result.History = append(result.History, entry)
		result.Rounds = round
		lastAction = describeAction(entry)

		if e.rec != nil {
			if err := e.rec.RecordFixAction(ctx, params.Project, project.FixActionParams{
				Round:   round,
				Action:  string(entry.Action),
				Target:  entry.Target,
				OK:      entry.OK,
				Summary: entry.Summary,
			}); err != nil {
				return result, fmt.Errorf("failed to record fix action: %w", err)
			}
		}

		e.emit(Event{Stage: StageFix, Round: round, Action: string(entry.Action), Target: entry.Target,
			Diff: diff, Message: describeAction(entry)})
		logger.Info("Fix round %d for %s: %s", round, params.Project, describeAction(entry))

		if entry.Action == ActionDone && entry.OK {
			result.Done = true
			break
		}
	}

	if !result.Done {
		if e.rec != nil {
			if err := e.rec.RecordFixStopped(ctx, params.Project, result.Rounds); err != nil {
				return result, fmt.Errorf("failed to record fix stop: %w", err)
			}
		}
		e.emit(Event{Stage: StageFix, Round: result.Rounds,
			Message: fmt.Sprintf("Stopped after %d attempts without resolution", result.Rounds)})
		logger.Warn("Fix for %s stopped at round cap %d", params.Project, e.maxFix)
	}

	result.Files = files.Files()
	return result, nil
}

// applyFixAction executes one validated action against the collection and
// the store. The returned error is fatal (persistence failure); everything
// the model can recover from comes back as a failed entry instead. The
// returned file is non-nil only for a successful read, which feeds the next
// round's content block.
func (e *Engine) applyFixAction(ctx context.Context, proj string, files *project.Collection, reply *fixReply) (HistoryEntry, *project.GeneratedFile, string, error) {
	switch reply.Action {
	case ActionRead:
		f, ok := files.Get(reply.TargetFile)
		if !ok {
			return HistoryEntry{Action: ActionRead, Target: reply.TargetFile, OK: false, Summary: "file not found"}, nil, "", nil
		}
		return HistoryEntry{Action: ActionRead, Target: f.Name, OK: true}, &f, "", nil

	case ActionWrite:
		if reply.TargetFile == "" || reply.Code == "" {
			return HistoryEntry{Action: ActionWrite, Target: reply.TargetFile, OK: false, Summary: "missing targetFile or code"}, nil, "", nil
		}
		var diff string
		usedFor := ""
		if old, ok := files.Get(reply.TargetFile); ok {
			diff = udiff.Unified("a/"+old.Name, "b/"+old.Name, old.Code, reply.Code)
			usedFor = old.UsedFor
		}
		files.Put(project.GeneratedFile{Name: reply.TargetFile, Code: reply.Code, UsedFor: usedFor})
		if err := e.store.PutFile(ctx, proj, project.PutFileParams{Name: reply.TargetFile, Code: reply.Code, UsedFor: usedFor}); err != nil {
			return HistoryEntry{}, nil, "", fmt.Errorf("failed to persist %s: %w", reply.TargetFile, err)
		}
		return HistoryEntry{Action: ActionWrite, Target: reply.TargetFile, OK: true, Summary: reply.Explanation}, nil, diff, nil

	case ActionMove:
		if reply.NewPath == "" {
			return HistoryEntry{Action: ActionMove, Target: reply.TargetFile, OK: false, Summary: "missing newPath"}, nil, "", nil
		}
		old, ok := files.Get(reply.TargetFile)
		if !ok {
			return HistoryEntry{Action: ActionMove, Target: reply.TargetFile, OK: false, Summary: "file not found"}, nil, "", nil
		}
		// Write the new name before deleting the old one so an interrupted
		// move duplicates content instead of losing it.
		files.Put(project.GeneratedFile{Name: reply.NewPath, Code: old.Code, UsedFor: old.UsedFor})
		if err := e.store.PutFile(ctx, proj, project.PutFileParams{Name: reply.NewPath, Code: old.Code, UsedFor: old.UsedFor}); err != nil {
			return HistoryEntry{}, nil, "", fmt.Errorf("failed to persist %s: %w", reply.NewPath, err)
		}
		files.Delete(old.Name)
		if err := e.store.DeleteFile(ctx, proj, old.Name); err != nil {
			return HistoryEntry{}, nil, "", fmt.Errorf("failed to delete %s: %w", old.Name, err)
		}
		return HistoryEntry{Action: ActionMove, Target: old.Name, OK: true, Summary: "moved to " + reply.NewPath}, nil, "", nil

	case ActionDelete:
		if !files.Has(reply.TargetFile) {
			return HistoryEntry{Action: ActionDelete, Target: reply.TargetFile, OK: false, Summary: "file not found"}, nil, "", nil
		}
		files.Delete(reply.TargetFile)
		if err := e.store.DeleteFile(ctx, proj, reply.TargetFile); err != nil {
			return HistoryEntry{}, nil, "", fmt.Errorf("failed to delete %s: %w", reply.TargetFile, err)
		}
		return HistoryEntry{Action: ActionDelete, Target: reply.TargetFile, OK: true}, nil, "", nil

	case ActionDone:
		return HistoryEntry{Action: ActionDone, OK: true, Summary: reply.Explanation}, nil, "", nil
	}

	return HistoryEntry{Action: reply.Action, OK: false, Summary: "unknown action"}, nil, "", nil
}

// parseFixReply extracts and validates the round's JSON action.
func parseFixReply(raw string) (*fixReply, error) {
	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed fix response: %w", err)
	}
	var reply fixReply
	if err := json.Unmarshal([]byte(jsonStr), &reply); err != nil {
		return nil, fmt.Errorf("malformed fix response: %w", err)
	}
	reply.Action = Action(strings.ToLower(strings.TrimSpace(string(reply.Action))))
	switch reply.Action {
	case ActionRead, ActionWrite, ActionMove, ActionDelete, ActionDone:
		return &reply, nil
	}
	return nil, fmt.Errorf("unknown fix action %q", reply.Action)
}

// describeAction renders one history entry as a single prompt line.
func describeAction(e HistoryEntry) string {
	var b strings.Builder
	b.WriteString(string(e.Action))
	if e.Target != "" {
		b.WriteString(" ")
		b.WriteString(e.Target)
	}
	if e.OK {
		b.WriteString(" (ok)")
	} else {
		b.WriteString(" (failed)")
	}
	if e.Summary != "" {
		b.WriteString(": ")
		b.WriteString(e.Summary)
	}
	return b.String()
}

func formatFixHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "No actions taken yet."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", e.Round, describeAction(e))
	}
	return strings.TrimRight(b.String(), "\n")
}
