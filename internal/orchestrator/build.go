package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parchlabs/sitesmith/internal/instruction"
	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/project"
	"github.com/parchlabs/sitesmith/internal/template"
)

// BuildParams describes one build run.
type BuildParams struct {
	Project string
	Request string        // The user's site request; becomes the first user turn
	History []llm.Message // Prior conversation, optional
}

// BuildResult is the outcome of a build run.
type BuildResult struct {
	Instruction string // Final plan blob as the model last emitted it
	Rounds      int    // Generation rounds executed
	Complete    bool   // Model signalled completion before the round cap
	Files       []project.GeneratedFile
}

// buildReply is the JSON contract for one generation round.
type buildReply struct {
	IsComplete         bool   `json:"isComplete"`
	PageName           string `json:"pageName"`
	Code               string `json:"code"`
	UsedFor            string `json:"usedFor"`
	UpdatedInstruction string `json:"updatedInstruction"`
}

// Build runs the full generation flow: one planning call, then one model
// call per file until the model reports completion or the round cap hits.
// Any failure aborts immediately and keeps the files already written; a
// partially built project is a valid, resumable state.
func (e *Engine) Build(ctx context.Context, params BuildParams) (*BuildResult, error) {
	history := params.History
	if params.Request != "" {
		history = append(history, llm.Message{Role: "user", Content: params.Request})
	}

	instructionText, err := e.Plan(ctx, params.Project, history)
	if err != nil {
		return nil, err
	}

	files, err := e.loadCollection(ctx, params.Project)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{Instruction: instructionText}

	for round := 1; round <= e.maxBuild; round++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("build cancelled: %w", err)
		}

		plan := instruction.Parse(instructionText)
		done, total := plan.Progress()

		target := "next file"
		if entry, ok := plan.NextTarget(); ok {
			target = entry.Path
		}
		e.emit(Event{Stage: StageBuild, Round: round, Target: target, Done: done, Total: total,
			Message: fmt.Sprintf("Generating %s", target)})

		reply, err := e.buildRound(ctx, history, instructionText, files)
		if err != nil {
			e.emit(Event{Stage: StageBuild, Round: round, Err: err.Error(),
				Message: fmt.Sprintf("Round %d failed; %d files kept", round, files.Len())})
			return result, err
		}

		if reply.IsComplete {
			result.Complete = true
			if e.rec != nil {
				if err := e.rec.RecordBuildComplete(ctx, params.Project, result.Rounds); err != nil {
					return result, fmt.Errorf("failed to record build completion: %w", err)
				}
			}
			e.emit(Event{Stage: StageBuild, Round: round, Done: done, Total: total, Message: "Build complete"})
			break
		}

		// Persist before the next round starts: round n+1's context has to
		// include this write.
		files.Put(project.GeneratedFile{Name: reply.PageName, Code: reply.Code, UsedFor: reply.UsedFor})
		if err := e.store.PutFile(ctx, params.Project, project.PutFileParams{
			Name:    reply.PageName,
			Code:    reply.Code,
			UsedFor: reply.UsedFor,
		}); err != nil {
			return result, fmt.Errorf("failed to persist %s: %w", reply.PageName, err)
		}

		result.Rounds++
		instructionText = reply.UpdatedInstruction
		result.Instruction = instructionText

		updated := instruction.Parse(instructionText)
		done, total = updated.Progress()

		if e.rec != nil {
			if err := e.rec.RecordBuildRound(ctx, params.Project, project.BuildRoundParams{
				Round: result.Rounds,
				Page:  reply.PageName,
				Done:  done,
				Total: total,
			}); err != nil {
				return result, fmt.Errorf("failed to record build round: %w", err)
			}
		}

		e.emit(Event{Stage: StageBuild, Round: round, Target: reply.PageName, Done: done, Total: total,
			Message: fmt.Sprintf("Wrote %s (%d/%d)", reply.PageName, done, total)})
		logger.Info("Build round %d for %s: wrote %s (%d/%d)", round, params.Project, reply.PageName, done, total)
	}

	if !result.Complete {
		e.emit(Event{Stage: StageBuild, Round: result.Rounds, Message: fmt.Sprintf("Stopped after %d rounds without completion", e.maxBuild)})
		logger.Warn("Build for %s stopped at round cap %d", params.Project, e.maxBuild)
	}

	result.Files = files.Files()
	return result, nil
}

// buildRound performs one model call and validates the reply against the
// round contract. The model gets the full conversation, the current plan and
// every generated file so far, so later files can reference earlier ones by
// content.
func (e *Engine) buildRound(ctx context.Context, history []llm.Message, instructionText string, files *project.Collection) (*buildReply, error) {
	userTurn := template.Render(template.BuildRound, template.Variables{
		Instruction: instructionText,
		Files:       template.FormatFiles(files.Files()),
	})

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: template.BuildSystem})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userTurn})

	raw, err := e.chat(ctx, e.model, "generation", messages)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}

	var reply buildReply
	if err := json.Unmarshal([]byte(jsonStr), &reply); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}

	if reply.IsComplete {
		return &reply, nil
	}
	if reply.PageName == "" || reply.Code == "" {
		return nil, fmt.Errorf("malformed generation response: missing pageName or code")
	}
	if reply.UpdatedInstruction == "" {
		return nil, fmt.Errorf("malformed generation response: missing updatedInstruction")
	}
	return &reply, nil
}
