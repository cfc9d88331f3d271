package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/KNICEX/overheat-monitor/internal/service/notification"
)

var _ notification.Channel = (*Service)(nil)

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// 逗号分隔的收件人列表
	To string `mapstructure:"to"`
}

// Service 通过 SMTPS(465端口隐式TLS)发送纯文本告警邮件,
// 标题简洁, 正文详细。
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) Name() string {
	return "email"
}

func (s *Service) recipients() []string {
	parts := strings.Split(s.cfg.To, ",")
	to := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			to = append(to, p)
		}
	}
	return to
}

func (s *Service) Send(ctx context.Context, msg notification.Message) error {
	to := s.recipients()
	if s.cfg.Username == "" || s.cfg.Password == "" || len(to) == 0 {
		return fmt.Errorf("%w: email channel not fully configured", notification.ErrPermanent)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    &tls.Config{ServerName: s.cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	cli, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer cli.Close()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err = cli.Auth(auth); err != nil {
		return fmt.Errorf("%w: smtp auth: %v", notification.ErrPermanent, err)
	}

	if err = cli.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err = cli.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: smtp rcpt %s: %v", notification.ErrPermanent, rcpt, err)
		}
	}

	w, err := cli.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = w.Write(s.render(to, msg)); err != nil {
		return fmt.Errorf("write mail body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close mail body: %w", err)
	}

	return cli.Quit()
}

func (s *Service) render(to []string, msg notification.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.cfg.Username + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Title) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
