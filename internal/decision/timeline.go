package decision

import (
	"fmt"

	"github.com/roach88/lineage/internal/entity"
)

// timelineReason prefixes every fatal domain violation. Tests and review
// queues key on this prefix; it is part of the contract.
const timelineReason = "Timeline impossible"

// checkTimeline validates a person's vital dates against hard
// plausibility bounds. A non-empty return is a fatal block: no
// configuration downgrades it to advisory.
func (d *Decider) checkTimeline(p entity.Person) string {
	birth, death := p.Birth.Year, p.Death.Year
	if birth == 0 || death == 0 {
		return ""
	}
	if death < birth {
		return fmt.Sprintf("%s: death year %d precedes birth year %d", timelineReason, death, birth)
	}
	if death-birth > d.cfg.MaxLifespan {
		return fmt.Sprintf("%s: lifespan %d years exceeds maximum %d", timelineReason, death-birth, d.cfg.MaxLifespan)
	}
	return ""
}

// ValidateParentChild checks that the parent's age at the child's birth
// falls inside the configured bounds. Returns a block reason or "".
// Years of zero (unknown) skip the check; absence of evidence is not a
// violation.
func (d *Decider) ValidateParentChild(parent, child entity.Person) string {
	pb, cb := parent.Birth.Year, child.Birth.Year
	if pb == 0 || cb == 0 {
		return ""
	}
	age := cb - pb
	if age < d.cfg.MinParentAge || age > d.cfg.MaxParentAge {
		return fmt.Sprintf("%s: parent age %d at child's birth outside [%d,%d]",
			timelineReason, age, d.cfg.MinParentAge, d.cfg.MaxParentAge)
	}
	return ""
}
