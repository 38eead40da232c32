package service

import (
	"fmt"

	"budget/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetInviteEmail 发送预算邀请邮件
func (s *EmailService) SendBudgetInviteEmail(toEmail, inviterName, budgetName, joinLink string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 EMAIL_ENABLED=true")
	}

	subject := fmt.Sprintf("【家庭记账】%s 邀请你加入预算「%s」", inviterName, budgetName)
	body := s.generateInviteEmailBody(inviterName, budgetName, joinLink)

	return s.sendEmail(toEmail, subject, body)
}

// generateInviteEmailBody 生成邀请邮件内容
func (s *EmailService) generateInviteEmailBody(inviterName, budgetName, joinLink string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .btn { display: inline-block; background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; font-weight: 600; margin: 20px 0; }
        .btn:hover { opacity: 0.9; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
        .link { word-break: break-all; color: #2563eb; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 家庭记账</h1>
        </div>
        <div class="content">
            <p><strong>%s</strong> 邀请你加入共享预算 <strong>「%s」</strong>。</p>
            <p>加入后你们可以共同记录开销、查看各分类的消费汇总。</p>
            <p style="text-align: center;">
                <a href="%s" class="btn">接受邀请</a>
            </p>
            <p>如果按钮无法点击，请复制以下链接到浏览器打开：</p>
            <p class="link">%s</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© 家庭记账 - 你们的共享财务管理助手</p>
        </div>
    </div>
</body>
</html>
`, inviterName, budgetName, joinLink, joinLink)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
