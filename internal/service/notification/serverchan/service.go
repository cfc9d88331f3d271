package serverchan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/notification"
)

const defaultBaseURL = "https://sctapi.ftqq.com"

var _ notification.Channel = (*Service)(nil)

// Service Server酱微信推送渠道
type Service struct {
	sendKey string
	baseURL string
	cli     *http.Client
}

type Option func(s *Service)

func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

func NewService(sendKey string, opts ...Option) *Service {
	svc := &Service{
		sendKey: sendKey,
		baseURL: defaultBaseURL,
		cli: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Name() string {
	return "serverchan"
}

func (s *Service) Send(ctx context.Context, msg notification.Message) error {
	if s.sendKey == "" {
		return fmt.Errorf("%w: serverchan send key not configured", notification.ErrPermanent)
	}

	form := url.Values{}
	form.Set("title", msg.Title)
	// 正文包进代码块, 微信里排版不乱
	form.Set("desp", "```\n"+msg.Body+"\n```")

	endpoint := fmt.Sprintf("%s/%s.send", s.baseURL, s.sendKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create serverchan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.cli.Do(req)
	if err != nil {
		return fmt.Errorf("send serverchan push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: serverchan returned status %d", notification.ErrPermanent, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("serverchan returned status %d", resp.StatusCode)
	}

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode serverchan response: %w", err)
	}
	if body.Code != 0 {
		return fmt.Errorf("serverchan rejected push: code=%d message=%s", body.Code, body.Message)
	}
	return nil
}
