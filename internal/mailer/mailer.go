// Package mailer delivers plain-text e-mail through the user's own SMTP
// relay.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidAddress is returned for recipients or headers that would break
// the message framing.
var ErrInvalidAddress = errors.New("mailer: invalid address or header")

// Account holds the SMTP credentials of the sending user.
type Account struct {
	From     string
	Password string
	Host     string
	Port     int
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message with the given account.
type Sender interface {
	Send(ctx context.Context, acct Account, msg Message) error
}

// SMTP sends mail with net/smtp. Port 465 uses implicit TLS; any other
// port upgrades with STARTTLS when the server offers it.
type SMTP struct {
	Timeout time.Duration
}

var _ Sender = SMTP{}

func (s SMTP) Send(ctx context.Context, acct Account, msg Message) error {
	data, err := buildMessage(acct.From, msg, time.Now())
	if err != nil {
		return err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(acct.Host, strconv.Itoa(acct.Port))
	tlsConfig := &tls.Config{ServerName: acct.Host}

	var conn net.Conn
	if acct.Port == 465 {
		d := tls.Dialer{Config: tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mailer: dialing %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, acct.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mailer: greeting from %s: %w", addr, err)
	}
	defer c.Close()

	if acct.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("mailer: starttls: %w", err)
			}
		}
	}
	if ok, _ := c.Extension("AUTH"); ok && acct.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", acct.From, acct.Password, acct.Host)); err != nil {
			return fmt.Errorf("mailer: auth: %w", err)
		}
	}

	if err := c.Mail(acct.From); err != nil {
		return fmt.Errorf("mailer: MAIL FROM: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("mailer: RCPT TO %s: %w", msg.To, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mailer: DATA: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("mailer: writing body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mailer: closing body: %w", err)
	}
	return c.Quit()
}

func buildMessage(from string, msg Message, now time.Time) ([]byte, error) {
	for _, v := range []string{from, msg.To, msg.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, ErrInvalidAddress
		}
	}
	if !strings.Contains(msg.To, "@") || !strings.Contains(from, "@") {
		return nil, ErrInvalidAddress
	}

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String()), nil
}
