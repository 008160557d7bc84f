package intake

import "github.com/spigell/screener/internal/validate"

// Stage is one step of the intake conversation.
type Stage string

const (
	StageGreeting           Stage = "greeting"
	StageCollectName        Stage = "collect_name"
	StageCollectEmail       Stage = "collect_email"
	StageCollectPhone       Stage = "collect_phone"
	StageCollectExperience  Stage = "collect_experience"
	StageCollectPosition    Stage = "collect_position"
	StageCollectLocation    Stage = "collect_location"
	StageCollectTechStack   Stage = "collect_tech_stack"
	StageTechnicalQuestions Stage = "technical_questions"
	StageConclusion         Stage = "conclusion"
	StageEnded              Stage = "ended"
)

// Sequence is the fixed order the conversation moves through.
var Sequence = []Stage{
	StageGreeting,
	StageCollectName,
	StageCollectEmail,
	StageCollectPhone,
	StageCollectExperience,
	StageCollectPosition,
	StageCollectLocation,
	StageCollectTechStack,
	StageTechnicalQuestions,
	StageConclusion,
	StageEnded,
}

func (s Stage) String() string { return string(s) }

// index returns the position of s in Sequence or -1.
func (s Stage) index() int {
	for i, st := range Sequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Field returns the candidate field collected at s, if any.
func (s Stage) Field() (validate.Field, bool) {
	switch s {
	case StageCollectName:
		return validate.FieldName, true
	case StageCollectEmail:
		return validate.FieldEmail, true
	case StageCollectPhone:
		return validate.FieldPhone, true
	case StageCollectExperience:
		return validate.FieldExperience, true
	case StageCollectPosition:
		return validate.FieldPosition, true
	case StageCollectLocation:
		return validate.FieldLocation, true
	case StageCollectTechStack:
		return validate.FieldTechStack, true
	default:
		return "", false
	}
}

// IsCollection reports whether s collects a candidate field.
func (s Stage) IsCollection() bool {
	_, ok := s.Field()
	return ok
}

// Title renders the stage for prompts and status lines, e.g. "Collect Name".
func (s Stage) Title() string {
	switch s {
	case StageGreeting:
		return "Greeting"
	case StageCollectName:
		return "Collect Name"
	case StageCollectEmail:
		return "Collect Email"
	case StageCollectPhone:
		return "Collect Phone"
	case StageCollectExperience:
		return "Collect Experience"
	case StageCollectPosition:
		return "Collect Position"
	case StageCollectLocation:
		return "Collect Location"
	case StageCollectTechStack:
		return "Collect Tech Stack"
	case StageTechnicalQuestions:
		return "Technical Questions"
	case StageConclusion:
		return "Conclusion"
	case StageEnded:
		return "Ended"
	default:
		return string(s)
	}
}

// NeededInfo describes the input the stage waits for.
func (s Stage) NeededInfo() string {
	if field, ok := s.Field(); ok {
		return field.Label()
	}

	switch s {
	case StageGreeting:
		return "Acknowledgement of the greeting"
	case StageTechnicalQuestions:
		return "Answer to technical question"
	case StageConclusion:
		return "None - conversation ending"
	case StageEnded:
		return "None - conversation ended"
	default:
		return "Unknown"
	}
}
