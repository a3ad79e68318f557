// Package approval contains the per-event pipeline: gate the webhook
// event, fetch the approval instance, derive a summary, collect and
// download attachments, and hand a notification to the mail sender.
package approval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shic-it/feishu-approval-mailer/internal/feishu"
	"github.com/shic-it/feishu-approval-mailer/internal/form"
	"go.uber.org/zap"
)

// InstanceAPI is the slice of the Feishu client the processor consumes.
type InstanceAPI interface {
	GetApprovalInstance(ctx context.Context, instanceCode string) (*feishu.Instance, error)
	GetFileDownloadURLs(ctx context.Context, fileTokens []string) (map[string]string, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// MailSender delivers the final notification with attachments.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string, attachments []form.Attachment) error
}

// Processor turns one approved instance into one outgoing mail.
type Processor struct {
	api    InstanceAPI
	router *Router
	sender MailSender
	walker *form.Walker
	logger *zap.Logger
}

// NewProcessor creates a new approval processor
func NewProcessor(api InstanceAPI, router *Router, sender MailSender, logger *zap.Logger) *Processor {
	return &Processor{
		api:    api,
		router: router,
		sender: sender,
		walker: form.NewWalker(logger),
		logger: logger,
	}
}

// HandleEvent processes one webhook event. Events that are not approved
// approval-instance events are logged and skipped; only upstream API and
// delivery failures surface as errors.
func (p *Processor) HandleEvent(ctx context.Context, event *Event) error {
	eventType := event.Header.EventType
	if eventType != "" && !strings.Contains(eventType, "approval_instance") {
		p.logger.Info("Skipping non-instance event",
			zap.String("event_type", eventType))
		return nil
	}

	if status := event.Status(); status != StatusApproved {
		p.logger.Info("Skipping event with non-approved status",
			zap.String("status", status))
		return nil
	}

	instanceCode := event.InstanceCode()
	if instanceCode == "" {
		p.logger.Warn("No instance code found in event",
			zap.String("event_id", event.Header.EventID))
		return nil
	}

	p.logger.Info("Processing approved instance",
		zap.String("instance_code", instanceCode))

	if err := p.ProcessInstance(ctx, instanceCode); err != nil {
		p.logger.Error("Failed to process approval instance",
			zap.String("instance_code", instanceCode),
			zap.Error(err))
		return err
	}
	return nil
}

// ProcessInstance runs the pipeline for one approved instance code.
func (p *Processor) ProcessInstance(ctx context.Context, instanceCode string) error {
	instance, err := p.api.GetApprovalInstance(ctx, instanceCode)
	if err != nil {
		return err
	}

	destination, ok := p.router.Route(instance.ApprovalName)
	if !ok {
		p.logger.Info("Approval category has no destination mailbox, skipping",
			zap.String("approval_name", instance.ApprovalName),
			zap.String("instance_code", instanceCode))
		return nil
	}

	fields, attachments := p.walker.Walk(instance.Form)

	summary := form.Summarize(fields)
	if summary.Title == "" {
		summary.Title = instance.SerialNumber
	}
	if summary.Title == "" {
		summary.Title = instanceCode
	}

	if len(attachments) == 0 {
		p.logger.Info("No attachments found, skipping instance",
			zap.String("instance_code", instanceCode))
		return nil
	}

	p.logger.Info("Downloading attachments",
		zap.String("instance_code", instanceCode),
		zap.Int("count", len(attachments)))

	downloaded, err := p.downloadAttachments(ctx, attachments)
	if err != nil {
		return err
	}
	if len(downloaded) == 0 {
		p.logger.Warn("Failed to download any attachments, skipping instance",
			zap.String("instance_code", instanceCode))
		return nil
	}

	subject := fmt.Sprintf("[%s]-%s", instance.ApprovalName, summary.Title)
	body := buildNotificationBody(instance.ApprovalName, summary, len(downloaded))

	p.logger.Info("Sending notification",
		zap.String("instance_code", instanceCode),
		zap.String("to", destination),
		zap.Int("attachments", len(downloaded)))

	if err := p.sender.Send(ctx, destination, subject, body, downloaded); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	p.logger.Info("Notification sent",
		zap.String("instance_code", instanceCode),
		zap.String("to", destination))
	return nil
}

// downloadAttachments resolves token-only descriptors into temporary URLs
// and downloads every attachment concurrently. Per-attachment failures
// are logged and excluded; only the URL resolution call can fail the
// whole batch, since without it token-only descriptors are unreachable.
func (p *Processor) downloadAttachments(ctx context.Context, attachments []form.Attachment) ([]form.Attachment, error) {
	var tokens []string
	for _, att := range attachments {
		if att.FileToken != "" && att.DownloadURL == "" {
			tokens = append(tokens, att.FileToken)
		}
	}

	urls, err := p.api.GetFileDownloadURLs(ctx, tokens)
	if err != nil {
		return nil, err
	}

	results := make([]*form.Attachment, len(attachments))
	var wg sync.WaitGroup

	for i := range attachments {
		att := attachments[i]

		downloadURL := att.DownloadURL
		if downloadURL == "" {
			downloadURL = urls[att.FileToken]
		}
		if downloadURL == "" {
			p.logger.Warn("No download URL for attachment",
				zap.String("name", att.Name))
			continue
		}

		wg.Add(1)
		go func(i int, att form.Attachment, url string) {
			defer wg.Done()
			content, err := p.api.DownloadFile(ctx, url)
			if err != nil {
				p.logger.Warn("Failed to download attachment",
					zap.String("name", att.Name),
					zap.Error(err))
				return
			}
			att.Content = content
			results[i] = &att
		}(i, att, downloadURL)
	}
	wg.Wait()

	downloaded := make([]form.Attachment, 0, len(attachments))
	for _, r := range results {
		if r != nil {
			downloaded = append(downloaded, *r)
		}
	}
	return downloaded, nil
}

// buildNotificationBody renders the mail body. The template is Chinese
// because the destination mailboxes belong to the finance team.
func buildNotificationBody(approvalName string, summary form.Summary, attachmentCount int) string {
	return fmt.Sprintf(
		"审批已通过\n\n审批类型: %s\n审批标题: %s\n审批金额: %s\n附件数量: %d\n",
		approvalName, summary.Title, summary.Amount, attachmentCount)
}
