package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"pgss/backend/config"
)

// Message 待发送邮件
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New 根据配置选择实现：有 SendGrid API Key 时真实发送，否则仅记录日志
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return &logMailer{logger: logger}
	}
	return &sendgridMailer{
		client:     sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:       sgmail.NewEmail(cfg.FromName, cfg.From),
		subjPrefix: "[" + cfg.FromName + "] ",
		logger:     logger,
	}
}

// ── SendGrid 实现 ──

type sendgridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToAddress == "" {
		return nil
	}

	html := msg.HTML
	if html == "" {
		html = "<p>" + msg.Text + "</p>"
	}
	v3 := sgmail.NewSingleEmail(
		m.from,
		m.subjPrefix+msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.ToAddress),
		msg.Text,
		html,
	)

	resp, err := m.client.SendWithContext(ctx, v3)
	if err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("发送邮件失败: HTTP %d", resp.StatusCode)
	}

	m.logger.Debug("邮件已发送", zap.String("to", msg.ToAddress), zap.String("subject", msg.Subject))
	return nil
}

// ── 日志实现（开发环境） ──

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("邮件（未配置 SendGrid，仅记录）",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
