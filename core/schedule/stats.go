package schedule

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// LeagueRun summarizes one merged league run.
type LeagueRun struct {
	League string   `json:"league"`
	Rows   int      `json:"rows"`
	Skins  []string `json:"skins"`
}

// Stats describes the league runs of a merged schedule.
type Stats struct {
	Records       int         `json:"records"`
	Runs          int         `json:"runs"`
	MeanRunLength float64     `json:"meanRunLength"`
	StdDevRunLen  float64     `json:"stdDevRunLength"`
	LongestRun    int         `json:"longestRun"`
	Leagues       []LeagueRun `json:"leagues"`
}

// ComputeStats derives run statistics from rows produced by
// MergeLeagueSkins. Rows without a league are counted as records only.
func ComputeStats(rows []MergedRow) Stats {
	st := Stats{Leagues: []LeagueRun{}}
	var lengths []float64
	for i, r := range rows {
		st.Records++
		if r.Span == 0 || r.League == "" {
			continue
		}
		lengths = append(lengths, float64(r.Span))
		if r.Span > st.LongestRun {
			st.LongestRun = r.Span
		}
		end := min(i+r.Span, len(rows))
		skins := []string{}
		for _, member := range rows[i:end] {
			for _, s := range member.LeagueSkin.Strings() {
				if !slices.Contains(skins, s) {
					skins = append(skins, s)
				}
			}
		}
		st.Leagues = append(st.Leagues, LeagueRun{League: r.League, Rows: r.Span, Skins: skins})
	}
	st.Runs = len(lengths)
	if st.Runs == 0 {
		return st
	}
	st.MeanRunLength = stat.Mean(lengths, nil)
	if st.Runs > 1 {
		st.StdDevRunLen = stat.StdDev(lengths, nil)
	}
	return st
}
