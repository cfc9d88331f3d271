package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/KNICEX/overheat-monitor/internal/service/llm"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
)

// staticAdvisor 固定话术, 也是 LLM 失败时的兜底
type staticAdvisor struct{}

func (staticAdvisor) Advise(_ context.Context, snapshot scoring.ScoreSnapshot) (string, error) {
	if snapshot.Label == scoring.LabelOversold {
		return "市场情绪偏弱/超跌，若基于长期投资，可考虑分批布局；短期波动风险较高。", nil
	}
	return "市场可能过热，短期回撤风险增加。可考虑审慎减仓或设置止盈/风险限额。", nil
}

type llmAdvisor struct {
	llmSvc llm.Service
}

func NewLLMAdvisor(llmSvc llm.Service) Advisor {
	return &llmAdvisor{
		llmSvc: llmSvc,
	}
}

func (a *llmAdvisor) Advise(ctx context.Context, snapshot scoring.ScoreSnapshot) (string, error) {
	var sb strings.Builder
	for metric, sub := range snapshot.SubScores {
		sb.WriteString(fmt.Sprintf("%s=%s ", metric, sub.StringFixed(3)))
	}

	prompt := fmt.Sprintf("%s 当前 Overheat Score 为 %s, 状态为 %s, 各指标0-1子分: %s\n"+
		"请用一到两句中文给出针对该状态的简短操作建议, 语气克制, 不要给出具体价格, "+
		"直接输出建议文本, 不要任何前缀或格式。",
		snapshot.Asset, snapshot.Score.StringFixed(1), snapshot.Label, sb.String())

	answer, err := a.llmSvc.AskOnce(ctx, llm.Question{Content: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer.Content), nil
}
