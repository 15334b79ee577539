package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mentallyblue/ai0x-sub000/internal/common"
)

// WebhookPoster 实现 port.Poster：把通过校验的文案 POST 到外部渠道的 Webhook
// 长度校验在文案服务里做，这里只管投递
type WebhookPoster struct {
	webhookURL string
}

func NewWebhookPoster(webhook string) *WebhookPoster {
	if webhook == "" {
		log.Println("⚠️ 警告: 推送 Webhook 为空，发布功能将无法工作！")
	}
	return &WebhookPoster{webhookURL: webhook}
}

// Post 发送文案 (带重试机制)
func (p *WebhookPoster) Post(ctx context.Context, text string) error {
	if p.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	payload := map[string]string{"text": text}
	body, _ := json.Marshal(payload)

	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := http.DefaultClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("渠道 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送文案失败", err)
	}

	return nil
}
