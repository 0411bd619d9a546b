package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
)

// PageData is the view model for every page.
type PageData struct {
	Title    string
	Page     string
	Session  domainauth.Snapshot
	Redirect string
	Username string
	Errors   map[string]string
	// CSRFToken is echoed by the sign-in and sign-out forms.
	CSRFToken string
}

// TemplateRenderer renders HTML templates for page responses.
type TemplateRenderer struct {
	t       *template.Template
	fsys    fs.FS
	devMode bool // re-parse templates on each render
	logger  *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates/*.tmpl (required)
	DevMode    bool         // Enable hot reloading of templates
	Logger     *slog.Logger // Logger for template errors (optional)
}

const templateGlob = "templates/*.tmpl"

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t, err := parseTemplates(cfg.TemplateFS)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	return &TemplateRenderer{t: t, fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("root").ParseFS(fsys, templateGlob)
}

// RenderPage writes the full layout for data with the given status.
func (r *TemplateRenderer) RenderPage(w http.ResponseWriter, status int, data PageData) error {
	t := r.t
	if r.devMode {
		reloaded, err := parseTemplates(r.fsys)
		if err != nil {
			r.logTemplateError("layout", err)
			return err
		}
		t = reloaded
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logTemplateError("layout", err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("page", data.Page),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
