// Package stages defines the fixed onboarding stage table and the checklist
// gate an operator must satisfy before a stage can be verified.
package stages

// Terminal is the final onboarding stage. Verification into it additionally
// requires a badge scan, and only records at this stage may be provisioned.
const Terminal = 8

// Definition describes one onboarding stage. The checklist item names are
// fixed at compile time; they are never derived from runtime data so Reset
// stays exhaustive.
type Definition struct {
	Number       int
	Name         string
	Checklist    []string
	RequiresScan bool
}

var definitions = [Terminal]Definition{
	{
		Number: 1,
		Name:   "intake",
		Checklist: []string{
			"identity_documents_received",
			"application_form_complete",
			"consent_signed",
		},
	},
	{
		Number: 2,
		Name:   "screening",
		Checklist: []string{
			"references_contacted",
			"background_check_clear",
		},
	},
	{
		Number: 3,
		Name:   "compliance",
		Checklist: []string{
			"policy_training_complete",
			"nda_signed",
			"safety_briefing_complete",
		},
	},
	{
		Number: 4,
		Name:   "department",
		Checklist: []string{
			"supervisor_approved",
			"role_assigned",
			"workstation_allocated",
		},
	},
	{
		Number: 5,
		Name:   "accounts-review",
		Checklist: []string{
			"email_reserved",
			"access_level_confirmed",
		},
	},
	{
		Number: 6,
		Name:   "security",
		Checklist: []string{
			"security_interview_complete",
			"clearance_granted",
		},
	},
	{
		Number: 7,
		Name:   "final-review",
		Checklist: []string{
			"records_cross_checked",
			"manager_signoff",
		},
	},
	{
		Number: 8,
		Name:   "badge-issuance",
		Checklist: []string{
			"photo_captured",
			"badge_printed",
			"badge_activated",
		},
		RequiresScan: true,
	},
}

// Get returns the definition for a stage number in [1, Terminal].
func Get(number int) (Definition, bool) {
	if number < 1 || number > Terminal {
		return Definition{}, false
	}
	return definitions[number-1], true
}

// All returns every stage definition in order.
func All() []Definition {
	out := make([]Definition, Terminal)
	copy(out, definitions[:])
	return out
}

// IsValid reports whether number names a defined stage.
func IsValid(number int) bool {
	return number >= 1 && number <= Terminal
}
