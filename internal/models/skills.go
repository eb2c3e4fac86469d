package models

// SkillRequirements are the skill sets extracted once per ticket. Any set
// may be empty; names are normalized lowercase.
type SkillRequirements struct {
	Critical   []string `json:"critical_skills"`
	Important  []string `json:"important_skills"`
	NiceToHave []string `json:"nice_to_have"`
}

// Normalize returns a copy with every set normalized.
func (r SkillRequirements) Normalize() SkillRequirements {
	return SkillRequirements{
		Critical:   NormalizeSkills(r.Critical),
		Important:  NormalizeSkills(r.Important),
		NiceToHave: NormalizeSkills(r.NiceToHave),
	}
}

// IsEmpty reports whether no skills were extracted at all.
func (r SkillRequirements) IsEmpty() bool {
	return len(r.Critical) == 0 && len(r.Important) == 0 && len(r.NiceToHave) == 0
}
