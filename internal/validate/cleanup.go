package validate

import (
	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
)

// CleanupDescriptors removes exactly the descriptor records the sweep
// flags as orphaned: link unknown, or person no longer tagged on the
// item. This is the explicit maintenance counterpart to the validator's
// warnings and is idempotent -- a second run removes nothing.
func (v *Validator) CleanupDescriptors(logger *report.EventLogger) int {
	removed := 0
	for id, p := range v.reg.Persons() {
		kept := p.FaceBioData[:0]
		for _, d := range p.FaceBioData {
			if orphan, msg := v.descriptorOrphan(id, d); orphan {
				util.InfoLog("Removing orphaned descriptor: %s", msg)
				logger.LogCleanup(id, d.Link)
				removed++
			} else {
				kept = append(kept, d)
			}
		}
		p.FaceBioData = kept
	}
	if removed > 0 {
		v.reg.MarkDirty()
	}
	return removed
}
