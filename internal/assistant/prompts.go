package assistant

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/intake"
	"github.com/spigell/screener/internal/validate"
)

//go:embed prompts/*.md prompts/stages/*.md
var promptFS embed.FS

const defaultInstruction = "Ask for the required information."

func loadPrompt(name string) string {
	data, err := promptFS.ReadFile("prompts/" + name + ".md")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func fill(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func greetingPrompt(company string) string {
	return fill(loadPrompt("greeting"), map[string]string{"COMPANY": company})
}

func collectorPrompt(company string, stage intake.Stage, candidate map[validate.Field]string) string {
	instruction := loadPrompt("stages/" + string(stage))
	if instruction == "" {
		instruction = defaultInstruction
	}

	return fill(loadPrompt("collector"), map[string]string{
		"COMPANY":     company,
		"STAGE":       stage.Title(),
		"COLLECTED":   collectedSoFar(candidate),
		"INSTRUCTION": instruction,
	})
}

func collectedSoFar(candidate map[validate.Field]string) string {
	var b strings.Builder
	for _, field := range validate.Fields {
		if v := candidate[field]; v != "" {
			if b.Len() == 0 {
				b.WriteString("Information already collected:\n")
			}
			fmt.Fprintf(&b, "- %s: %s\n", field.Label(), v)
		}
	}
	return strings.TrimSpace(b.String())
}

func questionPrompt(company, techStack string, number, total int, previous []intake.QA) string {
	var prev strings.Builder
	if len(previous) > 0 {
		prev.WriteString("Previous questions and answers:\n")
		for i, qa := range previous {
			fmt.Fprintf(&prev, "Q%d: %s\nA%d: %s\n", i+1, qa.Question, i+1, qa.Answer)
		}
	}

	return fill(loadPrompt("question"), map[string]string{
		"COMPANY":    company,
		"TECH_STACK": techStack,
		"NUMBER":     strconv.Itoa(number),
		"TOTAL":      strconv.Itoa(total),
		"PREVIOUS":   strings.TrimSpace(prev.String()),
	})
}

// questionHistory replays earlier pairs as conversation turns.
func questionHistory(previous []intake.QA) []ai.Message {
	out := make([]ai.Message, 0, len(previous)*2)
	for _, qa := range previous {
		out = append(out,
			ai.Message{Role: ai.RoleUser, Content: "Q: " + qa.Question},
			ai.Message{Role: ai.RoleAssistant, Content: "A: " + qa.Answer},
		)
	}
	return out
}

func fallbackPrompt(company string, stage intake.Stage) string {
	return fill(loadPrompt("fallback"), map[string]string{
		"COMPANY": company,
		"STAGE":   stage.Title(),
		"NEEDED":  stage.NeededInfo(),
	})
}

func conclusionPrompt(company string, candidate map[validate.Field]string) string {
	return fill(loadPrompt("conclusion"), map[string]string{
		"COMPANY":   company,
		"COLLECTED": strings.TrimSpace(intake.Summarize(candidate)),
	})
}

func exitPrompt(company string) string {
	return fill(loadPrompt("exit"), map[string]string{"COMPANY": company})
}
