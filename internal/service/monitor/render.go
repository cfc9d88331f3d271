package monitor

import (
	"fmt"
	"strings"

	"github.com/KNICEX/overheat-monitor/internal/service/notification"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
	"github.com/KNICEX/overheat-monitor/internal/service/signal"
)

// renderMessage 渲染告警: 简洁标题 + 详细正文
func (m *OverheatMonitor) renderMessage(asset signal.Asset, price *signal.PriceInfo,
	snapshot scoring.ScoreSnapshot, advice string) notification.Message {

	title := fmt.Sprintf("⚠️ %s 过热警报", asset.Symbol)
	if snapshot.Label == scoring.LabelOversold {
		title = fmt.Sprintf("🔔 %s 超跌警报", asset.Symbol)
	}

	upper, lower := m.engine.Thresholds()

	lines := []string{
		title,
		fmt.Sprintf("时间: %s", snapshot.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		fmt.Sprintf("资产: %s", asset.Symbol),
	}
	if price != nil {
		lines = append(lines, fmt.Sprintf("当前价格（USD）: %s", price.Price))
		if price.HasChange24hPct {
			lines = append(lines, fmt.Sprintf("24h 价格变动 (%%): %s", price.Change24hPct.StringFixed(2)))
		}
	}
	lines = append(lines,
		fmt.Sprintf("Overheat Score: %s (阈值: >=%s 为过热； <=%s 为超跌)",
			snapshot.Score.StringFixed(1), upper.String(), lower.String()),
		"",
		"主要指标（原始值）:",
	)
	for _, r := range snapshot.Readings {
		if r.Unavailable {
			lines = append(lines, fmt.Sprintf("  - %s: 不可用", r.Metric))
			continue
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s", r.Metric, r.Value.String()))
	}

	lines = append(lines, "", "贡献度（0-1 子分）:")
	for _, metric := range signal.ScoringMetrics() {
		if sub, ok := snapshot.SubScores[metric]; ok {
			lines = append(lines, fmt.Sprintf("  - %s: %s", metric, sub.StringFixed(3)))
		}
	}

	lines = append(lines, "", "简短建议："+advice)

	return notification.Message{
		Title: title,
		Body:  strings.Join(lines, "\n"),
	}
}
