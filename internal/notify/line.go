package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultPushURL = "https://api.line.me/v2/bot/message/push"

// Client pushes text messages to LINE groups. Delivery failures are
// reported to the caller but are never fatal to the operation that
// triggered the push.
type Client struct {
	httpClient *http.Client
	pushURL    string
	token      string
}

func NewClient(channelAccessToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pushURL:    defaultPushURL,
		token:      channelAccessToken,
	}
}

// SignNotification is the payload of a sign-link push message.
type SignNotification struct {
	PayeeName   string
	GrossAmount int64
	NetAmount   int64
	SignLink    string
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PushSignLink sends the signing-link notification to a group.
func (c *Client) PushSignLink(ctx context.Context, groupID string, n SignNotification) error {
	body, err := json.Marshal(pushRequest{
		To:       groupID,
		Messages: []pushMessage{{Type: "text", Text: FormatSignMessage(n)}},
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push to LINE: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push to LINE: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// FormatSignMessage renders the notification text: payee, gross and net
// amounts, the signing link, and the one-time-use warning.
func FormatSignMessage(n SignNotification) string {
	return fmt.Sprintf(`📋 勞報單簽署通知

👤 領款人：%s
💰 總金額：NT$ %s
💵 實付金額：NT$ %s

請點擊下方連結完成簽署：
%s

⚠️ 此連結為一次性使用，簽署後即失效`,
		n.PayeeName,
		FormatAmount(n.GrossAmount),
		FormatAmount(n.NetAmount),
		n.SignLink,
	)
}

// FormatAmount renders an NTD amount with thousand separators.
func FormatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, d := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
