package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/nyumba/fs"
)

const emailTemplatesDir = "assets/templates/email"

var (
	templates       tmplCache
	tmplInit        sync.Once
	appName         string
	frontendBaseURL string

	errTemplatesNotParsed = errors.New("email templates not parsed")

	htmlFuncs = htmltmpl.FuncMap{
		"safeHTML": func(s string) htmltmpl.HTML { return htmltmpl.HTML(s) }, // already sanitised
	}
	textFuncs = texttmpl.FuncMap{
		"plain": PlainText,
	}
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		ReplyTo *mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         appName,
		FrontendBaseURL: frontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML() error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render() error {
	if m.TemplateName != "" && templates == nil {
		return errTemplatesNotParsed
	}
	if err := m.renderText(); err != nil {
		return errors.Wrap(err, "rendering text")
	}
	return errors.Wrap(m.renderHTML(), "rendering html")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 || len(m.Bcc) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseEmailTemplates parses the embedded email templates once.
// Every "<name>.txt|.gohtml" file is parsed along with "_base.txt|.gohtml".
func ParseEmailTemplates(conf *Config, logger Logger) {
	tmplInit.Do(func() {
		appName = conf.AppName
		frontendBaseURL = conf.FrontendBaseURL
		templates = make(tmplCache)

		fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
		if err != nil {
			logger.Error("core.ParseEmailTemplates: globbing templates", err)
			return
		}
		strict := conf.Debug || conf.TestMode

		for _, fp := range fps {
			fname := path.Base(fp)
			ext := path.Ext(fname)
			if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
				continue
			}
			name := strings.TrimSuffix(fname, ext)
			entry, ok := templates[name]
			if !ok {
				entry = make(tmplCacheEntry)
				templates[name] = entry
			}
			if ext == ".txt" {
				tmpl, err := texttmpl.New("_base.txt").Funcs(textFuncs).ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.txt"), fp)
				if err != nil {
					logger.Error("core.ParseEmailTemplates: parsing "+fname, err)
					continue
				}
				if strict {
					tmpl = tmpl.Option("missingkey=error")
				}
				entry[ext] = tmpl
			} else {
				tmpl, err := htmltmpl.New("_base.gohtml").Funcs(htmlFuncs).ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
				if err != nil {
					logger.Error("core.ParseEmailTemplates: parsing "+fname, err)
					continue
				}
				if strict {
					tmpl = tmpl.Option("missingkey=error")
				}
				entry[ext] = tmpl
			}
		}
	})
}
