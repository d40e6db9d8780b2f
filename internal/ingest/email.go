package ingest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobfinder-engine/internal/platform"
)

// MailConfig points the pipeline at a mailbox receiving job alert emails
// (LinkedIn alerts, ATS digests, recruiter mail). Addr is host:port for
// IMAP over TLS.
type MailConfig struct {
	Addr     string
	Username string
	Password string
	Mailbox  string

	// MaxMessages caps how many unseen messages one run scans.
	MaxMessages int
}

type MailReport struct {
	MessagesScanned int      `json:"messagesScanned"`
	JobsAdded       int      `json:"jobsAdded"`
	Errors          []string `json:"errors"`
}

// RunMail scans unseen messages for job board links and submits each through
// the insert pipeline. Messages are fetched with BODY.PEEK and only marked
// \Seen after a successful scan, so a failed run leaves them for the next.
func (p *Pipeline) RunMail(ctx context.Context, cfg MailConfig) (MailReport, error) {
	rep := MailReport{Errors: []string{}}

	if cfg.Addr == "" || cfg.Username == "" || cfg.Password == "" {
		return rep, errors.New("mail ingest: addr, username, and password are required")
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 50
	}

	c, err := imapclient.DialTLS(cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	})
	if err != nil {
		return rep, fmt.Errorf("imap dial: %w", err)
	}
	defer c.Close()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		return rep, fmt.Errorf("imap login: %w", err)
	}
	defer func() { _ = c.Logout().Wait() }()

	if _, err := c.Select(cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return rep, fmt.Errorf("imap select %s: %w", cfg.Mailbox, err)
	}

	searchData, err := c.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -1, 0),
	}, nil).Wait()
	if err != nil {
		return rep, fmt.Errorf("imap search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return rep, nil
	}
	// Newest first, capped per run.
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > cfg.MaxMessages {
		uids = uids[:cfg.MaxMessages]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	var scanned []imap.UID
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("fetch message: %v", err))
			continue
		}

		subject := ""
		if buf.Envelope != nil {
			subject = buf.Envelope.Subject
		}
		raw := buf.FindBodySection(bodySection)

		rep.MessagesScanned++
		scanned = append(scanned, buf.UID)

		for _, cand := range extractJobLinks(messageText(raw, subject), subject) {
			added, err := p.Submit(ctx, cand.title, cand.link, "", "email-alert")
			if err != nil {
				rep.Errors = append(rep.Errors, fmt.Sprintf("message %q: %v", subject, err))
				continue
			}
			if added {
				rep.JobsAdded++
			}
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return rep, fmt.Errorf("imap fetch: %w", err)
	}

	if len(scanned) > 0 {
		storeCmd := c.Store(imap.UIDSetNum(scanned...), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("mark seen: %v", err))
		}
	}

	log.Printf("[ingest] mail done scanned=%d added=%d errors=%d",
		rep.MessagesScanned, rep.JobsAdded, len(rep.Errors))
	return rep, nil
}

var (
	hrefRe = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["'][^>]*>(.*?)</a>`)
	tagRe  = regexp.MustCompile(`(?is)<[^>]+>`)
	urlRe  = regexp.MustCompile(`https?://[^\s<>"']+`)
)

type linkCandidate struct {
	link  string
	title string
}

// extractJobLinks pulls job board links out of a message body. Anchor text
// becomes the candidate title when present, the subject otherwise; the
// pipeline's title normalizer cleans either up.
func extractJobLinks(body, subject string) []linkCandidate {
	seen := make(map[string]bool)
	var out []linkCandidate

	add := func(link, title string) {
		link = strings.TrimRight(strings.TrimSpace(link), ".,);:]\"'")
		if link == "" || seen[link] {
			return
		}
		p := platform.Classify(link)
		if p == platform.Other || p == platform.Invalid {
			return
		}
		seen[link] = true
		if strings.TrimSpace(title) == "" {
			title = subject
		}
		out = append(out, linkCandidate{link: link, title: title})
	}

	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		href := html.UnescapeString(m[1])
		text := strings.Join(strings.Fields(html.UnescapeString(tagRe.ReplaceAllString(m[2], " "))), " ")
		add(href, text)
	}
	for _, u := range urlRe.FindAllString(tagRe.ReplaceAllString(body, " "), -1) {
		add(u, "")
	}
	return out
}

// messageText extracts the text of an RFC822 message, preferring the HTML
// part (alert emails put the links there). Undecodable messages fall back to
// their raw bytes so link extraction still gets a chance.
func messageText(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 6<<20))
	plain, htmlPart := textParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), body)
	if htmlPart != "" {
		return htmlPart
	}
	if plain != "" {
		return plain
	}
	return string(body)
}

func textParts(contentType, cte string, body []byte) (plain, htmlPart string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(decodeCTE(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeCTE(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(io.LimitReader(part, 6<<20))
			pl, ht := textParts(
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				b,
			)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlPart) {
				htmlPart = ht
			}
		}
		return plain, htmlPart
	}

	s := string(decodeCTE(body, cte))
	if strings.HasPrefix(mediaType, "text/html") {
		return "", s
	}
	return s, ""
}

func decodeCTE(b []byte, cte string) []byte {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "base64":
		out, _ := io.ReadAll(io.LimitReader(
			base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b)), 6<<20))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(
			quotedprintable.NewReader(bytes.NewReader(b)), 6<<20))
		return out
	}
	return b
}
