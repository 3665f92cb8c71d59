package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillhq/commit-journal/internal/boundary"
	"github.com/quillhq/commit-journal/internal/display"
	"github.com/quillhq/commit-journal/internal/gitctx"
)

// EntryInput is everything the generator may draw on for one commit.
type EntryInput struct {
	Commit    *gitctx.CommitContext
	Exchanges []boundary.Exchange

	IncludeChat bool
	IncludeMood bool
}

// InvokeFunc matches ai.Invoker.Invoke.
type InvokeFunc func(prompt, userContext string) string

// aiSection pairs a section heading with the prompt that produces it.
type aiSection struct {
	name   string
	prompt string
}

var aiSections = []aiSection{
	{
		name:   "Summary",
		prompt: `Write 2-4 sentences of first-person engineering journal prose summarizing what this commit accomplished and why, drawing on the commit context and chat. Plain prose, no headings, no lists.`,
	},
	{
		name:   "Technical Synopsis",
		prompt: `Describe the technical substance of this commit for a future reader of an engineering journal: what changed structurally, notable implementation choices, anything non-obvious. 2-5 hyphen-bullet points. Output only the bullets.`,
	},
	{
		name:   "Accomplishments",
		prompt: `List what was completed in this commit as hyphen-bullet points, most significant first. Output only the bullets.`,
	},
	{
		name:   "Frustrations or Roadblocks",
		prompt: `From the chat, list any frustrations, dead ends, or roadblocks the developer hit during this work, as hyphen-bullet points. If the chat shows none, respond with exactly NONE.`,
	},
}

const moodPrompt = `Infer the developer's mood during this work from the chat transcript. Respond with exactly two lines: the first a one-or-two-word mood, the second a short phrase naming the evidence. If there is no chat evidence, respond with exactly NONE.`

// GenerateEntry produces the markdown body of one commit entry, section by
// section. Sections fail independently: an empty AI response drops that
// section and the rest still render. The mechanical sections (Discussion
// Notes, Commit Metadata) never need the AI.
func GenerateEntry(in EntryInput, invoke InvokeFunc) string {
	userContext := sectionContext(in)
	var parts []string

	add := func(name, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		parts = append(parts, fmt.Sprintf("#### %s\n\n%s", name, body))
	}

	for _, s := range aiSections {
		body := invoke(s.prompt, userContext)
		if strings.EqualFold(strings.TrimSpace(body), "NONE") {
			continue
		}
		if body == "" {
			slog.Warn("journal section skipped", "section", s.name)
			continue
		}
		add(s.name, body)
	}

	if in.IncludeMood {
		add("Tone/Mood", moodSection(invoke(moodPrompt, userContext)))
	}
	if in.IncludeChat {
		add("Discussion Notes (from chat)", discussionNotes(in.Exchanges))
	}
	add("Commit Metadata", commitMetadata(in.Commit))

	return strings.Join(parts, "\n\n")
}

// moodSection renders the two-line mood answer as blockquotes: mood first,
// indicators second.
func moodSection(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NONE") {
		return ""
	}
	lines := strings.SplitN(raw, "\n", 2)
	out := "> " + strings.TrimSpace(lines[0])
	if len(lines) == 2 && strings.TrimSpace(lines[1]) != "" {
		out += "\n> " + strings.TrimSpace(lines[1])
	}
	return out
}

// discussionNotes quotes the filtered chat verbatim, attributing each
// message to its speaker.
func discussionNotes(exchanges []boundary.Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		text := strings.ReplaceAll(strings.TrimSpace(ex.Text), "\n", "\n> ")
		if text == "" {
			continue
		}
		if ex.Speaker == "" {
			fmt.Fprintf(&b, "> %s\n", text)
		} else {
			fmt.Fprintf(&b, "> **%s:** %s\n", display.SpeakerLabel(ex.Speaker), text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func commitMetadata(c *gitctx.CommitContext) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- **Commit:** %s\n", c.Hash)
	fmt.Fprintf(&b, "- **Author:** %s\n", c.Author)
	fmt.Fprintf(&b, "- **Date:** %s\n", c.DateISO)
	fmt.Fprintf(&b, "- **Files Changed:** %d (source %d, config %d, docs %d, tests %d)\n",
		len(c.ChangedFiles), c.FileStats.Source, c.FileStats.Config, c.FileStats.Docs, c.FileStats.Tests)
	if c.DiffSummary != "" {
		fmt.Fprintf(&b, "- **Changes:** %s (%s)", c.DiffSummary, c.SizeClass)
	}
	return strings.TrimRight(b.String(), "\n")
}

// sectionContext is the JSON the AI sees for every section of one entry.
// Built once; sections differ only in their prompts.
func sectionContext(in EntryInput) string {
	payload := map[string]any{
		"commit": in.Commit,
	}
	if len(in.Exchanges) > 0 {
		payload["chat"] = in.Exchanges
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
