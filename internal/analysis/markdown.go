package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/shortform-signals/internal/metrics"
	"github.com/KaramelBytes/shortform-signals/internal/ranking"
)

// at most this many rows are listed per Markdown section
const markdownRows = 10

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func fmtValue(v metrics.Value) string {
	f, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", f)
}

// Markdown renders a compact report of a run.
func (p *Pipeline) Markdown(res *Result) string {
	var b strings.Builder
	s := res.Summary
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Videos: %d, creators: %d, platforms: %d\n", s.Videos, s.Creators, s.Platforms))
	b.WriteString(fmt.Sprintf("Formats: %d, niches: %d\n", s.FormatTypes, s.Niches))
	b.WriteString(fmt.Sprintf("Mean views %s, mean retention %s, mean engagement %s\n",
		fmtValue(s.MeanViews), fmtValue(s.MeanRetention), fmtValue(s.MeanEngagement)))
	if s.ZeroViewVideos > 0 {
		b.WriteString(fmt.Sprintf("Zero-view videos (ratios undefined): %d\n", s.ZeroViewVideos))
	}

	b.WriteString("\n[VALIDATION]\n")
	for _, t := range p.Report.Tables {
		b.WriteString(fmt.Sprintf("- %s (%s): read %d, accepted %d, rejected %d\n", t.Table, t.Origin, t.Read, t.Accepted, t.Rejected))
	}
	for _, kc := range p.Report.Summary() {
		b.WriteString(fmt.Sprintf("  • %s [%s]: %d\n", kc.Kind, kc.Severity, kc.Count))
	}

	if len(res.Insights) > 0 {
		b.WriteString("\n[KEY INSIGHTS]\n")
		for _, in := range res.Insights {
			b.WriteString(fmt.Sprintf("- %s: %s (%s)\n", in.Topic, safeVal(in.Subject), in.Detail))
		}
	}

	if r := res.Rankings; r != nil {
		b.WriteString("\n[TOP CREATORS]\n")
		for i, c := range r.Creators.Ranked {
			if i >= markdownRows {
				break
			}
			b.WriteString(fmt.Sprintf("%d. %s (%s, %d followers): retention %s (n=%d), engagement %s\n",
				c.Rank, safeVal(c.CreatorName), c.Niche, c.Followers, fmtValue(c.Retention.Mean), c.Retention.N, fmtValue(c.Engagement.Mean)))
		}
		if len(r.Creators.Unranked) > 0 {
			b.WriteString(fmt.Sprintf("Unranked (no defined retention): %d\n", len(r.Creators.Unranked)))
		}
		for _, sec := range []struct {
			title string
			cmp   *ranking.Comparison
		}{{"FORMAT PERFORMANCE", r.Formats}, {"NICHE ANALYSIS", r.Niches}, {"DURATION ANALYSIS", r.Durations}, {"HOOK EFFECTIVENESS", r.HookRates}} {
			writeComparison(&b, sec.title, sec.cmp)
		}
	}

	if m := res.Correlation; m != nil {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, pr := range m.TopPairs(markdownRows) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", pr.A, pr.B, pr.R, pr.N))
		}
	}

	if c := res.Clusters; c != nil {
		b.WriteString("\n[CLUSTERS]\n")
		b.WriteString(fmt.Sprintf("k=%d seed=%d iterations=%d converged=%t features=%s\n",
			c.K, c.Seed, c.Iterations, c.Converged, strings.Join(c.Features, ",")))
		for _, sm := range c.Summaries {
			parts := make([]string, len(sm.Means))
			for j, v := range sm.Means {
				parts[j] = fmt.Sprintf("%s %s", c.Requested[j], fmtValue(v))
			}
			b.WriteString(fmt.Sprintf("- cluster %d (n=%d): %s\n", sm.ClusterID, sm.Size, strings.Join(parts, ", ")))
		}
	}

	var notes []string
	for _, g := range res.Guards {
		notes = append(notes, fmt.Sprintf("%s on %s: %s", g.Kind, g.Subject, g.Detail))
	}
	for _, e := range []struct {
		name string
		err  error
	}{{"correlation", res.CorrelationErr}, {"cluster", res.ClusterErr}, {"ranking", res.RankingErr}} {
		if e.err != nil {
			notes = append(notes, fmt.Sprintf("%s failed: %v", e.name, e.err))
		}
	}
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeComparison(b *strings.Builder, title string, c *ranking.Comparison) {
	if c == nil {
		return
	}
	b.WriteString("\n[" + title + "]\n")
	for i, g := range c.Groups {
		if i >= markdownRows {
			break
		}
		if g.Empty {
			b.WriteString(fmt.Sprintf("- %s (n=0): empty\n", safeVal(g.Key)))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s (n=%d)\n", safeVal(g.Key), g.Videos))
		for j, st := range g.Stats {
			if j >= 4 {
				break
			}
			b.WriteString(fmt.Sprintf("  • %s: mean %s, median %s (n=%d)\n", c.Metrics[j], fmtValue(st.Mean), fmtValue(st.Median), st.N))
		}
	}
}
