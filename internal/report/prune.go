package report

import (
	"os"
	"time"
)

// PruneResult reports what a retention sweep did.
type PruneResult struct {
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}

// Prune applies the retention policy to dir: at most maxKeep dumps are
// kept (0 disables the count limit) and dumps older than maxAge are
// dropped (0 disables the age limit). Sidecars go with their dumps.
func Prune(dir string, maxKeep int, maxAge time.Duration) (PruneResult, error) {
	pending, err := Scan(dir)
	if err != nil {
		return PruneResult{}, err
	}

	var cutoff time.Time
	if maxAge > 0 {
		cutoff = time.Now().Add(-maxAge)
	}

	var res PruneResult
	for i, p := range pending {
		tooMany := maxKeep > 0 && i >= maxKeep
		tooOld := !cutoff.IsZero() && p.ModTime.Before(cutoff)
		if !tooMany && !tooOld {
			res.Kept++
			continue
		}
		if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
			res.Kept++
			continue
		}
		_ = os.Remove(SidecarPath(p.Path))
		res.Removed++
	}
	return res, nil
}
