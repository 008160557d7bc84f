package assistant

import (
	"fmt"
	"strings"

	"github.com/spigell/screener/internal/intake"
	"github.com/spigell/screener/internal/validate"
)

const (
	staticExit = "Understood, we'll stop here. Thank you for your time today. " +
		"If you'd like to continue the screening later, just start a new conversation."
	staticConcluded = "Your screening is already complete. Type 'exit' to leave or /reset to start over."
	staticEnded     = "This conversation has ended. Type /reset to start a new screening."
	staticResumed   = "Welcome back! Let's continue where we left off."
)

var staticAsks = map[intake.Stage]string{
	intake.StageCollectName:       "To begin, could you please tell me your full name?",
	intake.StageCollectEmail:      "Thank you! What is your email address?",
	intake.StageCollectPhone:      "What is your phone number, including the country code (e.g. +1 234 567 8900)?",
	intake.StageCollectExperience: "How many years of professional experience do you have?",
	intake.StageCollectPosition:   "Which position or positions are you interested in?",
	intake.StageCollectLocation:   "Where are you currently located (city and country)?",
	intake.StageCollectTechStack:  "Please list the technologies you work with, separated by commas (e.g. Python, React, MongoDB).",
}

func staticGreeting(company string) string {
	return fmt.Sprintf("Hello and welcome to %s! I'm the hiring assistant and I'll guide you through "+
		"a short initial screening that takes just a few minutes. Are you ready to begin?", company)
}

func staticAsk(stage intake.Stage) string {
	if text, ok := staticAsks[stage]; ok {
		return text
	}
	return fmt.Sprintf("Please provide your %s.", strings.ToLower(stage.NeededInfo()))
}

func staticConclusion(candidate map[validate.Field]string) string {
	var b strings.Builder
	b.WriteString("Thank you")
	if name := candidate[validate.FieldName]; name != "" {
		b.WriteString(", " + name)
	}
	b.WriteString("! That completes the initial screening.\n\n")
	b.WriteString(intake.Summarize(candidate))
	b.WriteString("\nOur recruitment team will review your profile and answers and get back to you within 3-5 business days. Best of luck!")
	return b.String()
}
