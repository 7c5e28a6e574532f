package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/mailer"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	MaxCustomerName     = 200
	MaxEmailSubject     = 200
	MaxEmailBody        = 20000
	MaxWhatsAppBody     = 4096
	WhatsAppSendDelay   = time.Minute
	maxCustomerFieldLen = 500

	// MaxBulkRecipients caps one bulk e-mail request.
	MaxBulkRecipients = 100
	// BulkEmailTimeout bounds a whole bulk send so the response goes out
	// before the server's write timeout. Recipients not reached in time are
	// reported as failed.
	BulkEmailTimeout = 45 * time.Second
)

type CustomerService struct {
	ownership
	customers repository.CustomerRepository
	messages  repository.MessageRepository
	users     repository.UserRepository
	mail      mailer.Sender
	ai        *AI
	logger    *slog.Logger
	now       func() time.Time

	bulkTimeout time.Duration
}

func NewCustomerService(
	ideas repository.IdeaRepository,
	customers repository.CustomerRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	mail mailer.Sender,
	ai *AI,
	logger *slog.Logger,
) *CustomerService {
	return &CustomerService{
		ownership: ownership{ideas: ideas},
		customers: customers,
		messages:  messages,
		users:     users,
		mail:      mail,
		ai:        ai,
		logger:    logger,
		now:       time.Now,

		bulkTimeout: BulkEmailTimeout,
	}
}

// CustomerInput is the body of a new customer and, with pointer
// semantics in CustomerPatch, of an update.
type CustomerInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
}

type CustomerPatch struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Category  *string `json:"category"`
	Status    *string `json:"status"`
	Address   *string `json:"address"`
	Notes     *string `json:"notes"`
	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	LinkedIn  *string `json:"linkedin"`
	Twitter   *string `json:"twitter"`
}

func (s *CustomerService) List(ctx context.Context, userID, ideaID string) ([]model.Customer, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.ListCustomers(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/customer: listing customers: %w", err)
	}
	return customers, nil
}

func (s *CustomerService) Create(ctx context.Context, userID, ideaID string, in CustomerInput) (*model.Customer, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	c := &model.Customer{IdeaID: idea.ID}
	patch := CustomerPatch{
		Name: &in.Name, Email: &in.Email, Phone: &in.Phone, Company: &in.Company,
		Category: &in.Category, Address: &in.Address, Notes: &in.Notes,
		Facebook: &in.Facebook, Instagram: &in.Instagram, LinkedIn: &in.LinkedIn, Twitter: &in.Twitter,
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	if err := applyCustomerPatch(c, patch); err != nil {
		return nil, err
	}

	if err := s.customers.CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("service/customer: creating customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, userID, customerID string) (*model.Customer, error) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedIdea(ctx, userID, c.IdeaID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, userID, customerID string, patch CustomerPatch) (*model.Customer, error) {
	c, err := s.Get(ctx, userID, customerID)
	if err != nil {
		return nil, err
	}
	if err := applyCustomerPatch(c, patch); err != nil {
		return nil, err
	}
	if err := s.customers.UpdateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("service/customer: updating customer %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, userID, customerID string) error {
	c, err := s.Get(ctx, userID, customerID)
	if err != nil {
		return err
	}
	if err := s.customers.DeleteCustomer(ctx, c.ID); err != nil {
		return fmt.Errorf("service/customer: deleting customer %s: %w", c.ID, err)
	}
	return nil
}

func (s *CustomerService) Stats(ctx context.Context, userID, ideaID string) (*model.CustomerStats, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	stats, err := s.customers.CustomerStats(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/customer: computing stats: %w", err)
	}
	return stats, nil
}

// BulkEmailInput is one message for a hand-picked set of customers.
//
// REQUEST BODY: {"subject": "...", "body": "...", "customerIds": ["c1", "c2"]}
type BulkEmailInput struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	CustomerIDs []string `json:"customerIds"`
}

// BulkEmailResult lists recipients by e-mail address, and skipped
// customers by name.
type BulkEmailResult struct {
	Sent    []string `json:"sent"`
	Skipped []string `json:"skipped"`
	Failed  []string `json:"failed"`
}

// SendBulkEmail mails the selected customers of the idea from the user's
// own SMTP account.
//
// RECIPIENTS:
// Only customers that belong to this idea AND are listed in CustomerIDs
// are mailed. IDs of other ideas' customers (or unknown IDs) are ignored,
// never reported back, so the endpoint reveals nothing about them.
// Customers without an address are skipped; a failed delivery does not
// stop the others.
//
// TIME BUDGET:
// Each SMTP conversation can take up to the mailer's own timeout. The
// whole loop runs under bulkTimeout; once it expires, the remaining
// recipients are reported as failed without being attempted.
func (s *CustomerService) SendBulkEmail(ctx context.Context, userID, ideaID string, in BulkEmailInput) (*BulkEmailResult, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)
	if subject == "" {
		return nil, apperror.ValidationFailed("subject", "subject is required")
	}
	if len([]rune(subject)) > MaxEmailSubject {
		return nil, apperror.ValidationFailed("subject",
			fmt.Sprintf("subject must be %d characters or fewer", MaxEmailSubject))
	}
	if body == "" {
		return nil, apperror.ValidationFailed("body", "body is required")
	}
	if len([]rune(body)) > MaxEmailBody {
		return nil, apperror.ValidationFailed("body",
			fmt.Sprintf("body must be %d characters or fewer", MaxEmailBody))
	}
	selected := make(map[string]bool, len(in.CustomerIDs))
	for _, id := range in.CustomerIDs {
		if id = strings.TrimSpace(id); id != "" {
			selected[id] = true
		}
	}
	if len(selected) == 0 {
		return nil, apperror.ValidationFailed("customerIds", "select at least one customer")
	}
	if len(selected) > MaxBulkRecipients {
		return nil, apperror.ValidationFailed("customerIds",
			fmt.Sprintf("at most %d customers per message", MaxBulkRecipients))
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/customer: loading user: %w", err)
	}
	if !user.CanSendEmail() {
		return nil, apperror.ValidationFailed("smtp",
			"configure the sending e-mail, password, SMTP server and port in your profile first")
	}
	account := mailer.Account{
		From:     user.EmailForSending,
		Password: user.EmailPassword,
		Host:     user.SMTPServer,
		Port:     user.SMTPPort,
	}

	customers, err := s.customers.ListCustomers(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/customer: listing customers: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.bulkTimeout)
	defer cancel()

	result := &BulkEmailResult{Sent: []string{}, Skipped: []string{}, Failed: []string{}}
	for _, c := range customers {
		if !selected[c.ID] {
			continue
		}
		if c.Email == "" {
			result.Skipped = append(result.Skipped, c.Name)
			continue
		}
		if sendCtx.Err() != nil {
			result.Failed = append(result.Failed, c.Email)
			continue
		}
		err := s.mail.Send(sendCtx, account, mailer.Message{To: c.Email, Subject: subject, Body: body})
		if err != nil {
			s.logger.Warn("customer e-mail failed",
				slog.String("customerID", c.ID),
				slog.String("error", err.Error()),
			)
			result.Failed = append(result.Failed, c.Email)
			continue
		}
		result.Sent = append(result.Sent, c.Email)
	}

	s.logger.Info("bulk e-mail finished",
		slog.String("ideaID", idea.ID),
		slog.Int("sent", len(result.Sent)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// ScheduleWhatsApp queues a message for the customer. The dispatcher sends
// it once it is due.
func (s *CustomerService) ScheduleWhatsApp(ctx context.Context, userID, customerID, message string) (*model.ScheduledMessage, error) {
	c, err := s.Get(ctx, userID, customerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Phone) == "" {
		return nil, apperror.ValidationFailed("phone", "customer has no phone number")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len([]rune(message)) > MaxWhatsAppBody {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or fewer", MaxWhatsAppBody))
	}

	msg := &model.ScheduledMessage{
		IdeaID:     c.IdeaID,
		CustomerID: c.ID,
		Channel:    model.ChannelWhatsApp,
		Recipient:  c.Phone,
		Body:       message,
		SendAt:     s.now().UTC().Add(WhatsAppSendDelay),
		Status:     model.MessagePending,
	}
	if err := s.messages.CreateScheduledMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/customer: scheduling message: %w", err)
	}
	s.logger.Info("whatsapp message scheduled",
		slog.String("id", msg.ID),
		slog.String("customerID", c.ID),
		slog.Time("sendAt", msg.SendAt),
	)
	return msg, nil
}

func (s *CustomerService) Messages(ctx context.Context, userID, ideaID string) ([]model.ScheduledMessage, error) {
	idea, err := s.ownedIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListScheduledMessages(ctx, idea.ID)
	if err != nil {
		return nil, fmt.Errorf("service/customer: listing messages: %w", err)
	}
	return messages, nil
}

type ImprovedEmail struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// ImproveEmail rewrites a draft. When the reply carries no subject line the
// original subject is kept.
func (s *CustomerService) ImproveEmail(ctx context.Context, subject, content string) (*ImprovedEmail, error) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if len([]rune(content)) > MaxEmailBody {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or fewer", MaxEmailBody))
	}

	text, err := s.ai.Text(ctx, llm.PromptImproveEmail, map[string]string{
		"subject": subject,
		"content": content,
	})
	if err != nil {
		return nil, err
	}
	improvedSubject, improvedContent := splitImprovedEmail(text, subject)
	if improvedContent == "" {
		improvedContent = content
	}
	return &ImprovedEmail{Subject: improvedSubject, Content: improvedContent}, nil
}

func applyCustomerPatch(c *model.Customer, p CustomerPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return apperror.ValidationFailed("name", "name is required")
		}
		if len([]rune(name)) > MaxCustomerName {
			return apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or fewer", MaxCustomerName))
		}
		c.Name = name
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email != "" {
			if err := validateEmail("email", email); err != nil {
				return err
			}
		}
		c.Email = email
	}

	fields := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"phone", p.Phone, &c.Phone},
		{"company", p.Company, &c.Company},
		{"category", p.Category, &c.Category},
		{"status", p.Status, &c.Status},
		{"address", p.Address, &c.Address},
		{"notes", p.Notes, &c.Notes},
		{"facebook", p.Facebook, &c.Facebook},
		{"instagram", p.Instagram, &c.Instagram},
		{"linkedin", p.LinkedIn, &c.LinkedIn},
		{"twitter", p.Twitter, &c.Twitter},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if f.name != "notes" && len([]rune(v)) > maxCustomerFieldLen {
			return apperror.ValidationFailed(f.name,
				fmt.Sprintf("%s must be %d characters or fewer", f.name, maxCustomerFieldLen))
		}
		*f.dst = v
	}
	if c.Status == "" {
		c.Status = model.DefaultCustomerStatus
	}
	return nil
}
