package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/blog"
	"github.com/trezcool/nyumba/core/developer"
	"github.com/trezcool/nyumba/core/event"
	"github.com/trezcool/nyumba/core/property"
	appfs "github.com/trezcool/nyumba/fs"
)

const siteTemplatesDir = "assets/templates/site"

var siteFuncs = template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) }, // already sanitised
	"date":     func(t time.Time) string { return t.Format("2 Jan 2006") },
	"datetime": func(t time.Time) string { return t.Format("2 Jan 2006, 15:04") },
	"truncate": core.Truncate,
	"plain":    core.PlainText,
	"add":      func(a, b int) int { return a + b },
	"mul":      func(a, b int) int { return a * b },
}

func staticFS() fs.FS { return appfs.FS }

// siteRenderer renders the public pages. Each page is parsed along with _layout.gohtml,
// which calls {{template "content" .}}.
type siteRenderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*siteRenderer)(nil)

func newSiteRenderer(conf *core.Config) (*siteRenderer, error) {
	files, err := fs.Glob(appfs.FS, path.Join(siteTemplatesDir, "*.gohtml"))
	if err != nil {
		return nil, err
	}
	r := &siteRenderer{pages: make(map[string]*template.Template, len(files))}
	layout := path.Join(siteTemplatesDir, "_layout.gohtml")
	for _, file := range files {
		name := path.Base(file)
		if strings.HasPrefix(name, "_") {
			continue
		}
		tmpl := template.New(path.Base(layout)).Funcs(siteFuncs)
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		if tmpl, err = tmpl.ParseFS(appfs.FS, layout, file); err != nil {
			return nil, errors.Wrap(err, "parsing "+name)
		}
		r.pages[strings.TrimSuffix(name, ".gohtml")] = tmpl
	}
	return r, nil
}

type pageData struct {
	AppName string
	Title   string
	Data    interface{}
}

func (r *siteRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.Execute(w, data)
}

type siteApi struct {
	appName  string
	propSvc  property.Service
	devSvc   developer.Service
	blogSvc  blog.Service
	eventSvc event.Service
}

func registerSite(g *echo.Group, opts *Options) {
	site := siteApi{
		appName:  opts.Conf.AppName,
		propSvc:  opts.PropertySvc,
		devSvc:   opts.DeveloperSvc,
		blogSvc:  opts.BlogSvc,
		eventSvc: opts.EventSvc,
	}

	g.GET("", site.home)
	g.GET("/properties", site.properties)
	g.GET("/properties/:slug", site.property)
	g.GET("/developers/:slug", site.developer)
	g.GET("/blog", site.blog)
	g.GET("/blog/:slug", site.post)
	g.GET("/events", site.events)
}

func (site *siteApi) render(ctx echo.Context, page, title string, data interface{}) error {
	return ctx.Render(http.StatusOK, page, pageData{AppName: site.appName, Title: title, Data: data})
}

// Pages

func (site *siteApi) home(ctx echo.Context) error {
	c := ctx.Request().Context()
	first := core.Page{Number: 1, Size: 6}

	featured, err := site.propSvc.Query(c, &property.QueryFilter{Featured: boolPtr(true), Published: boolPtr(true)}, nil, first)
	if err != nil {
		return errors.Wrap(err, "querying featured properties")
	}
	events, err := site.eventSvc.Query(c, &event.QueryFilter{When: event.WhenUpcoming, Published: boolPtr(true)}, nil, core.Page{Number: 1, Size: 3})
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	posts, err := site.blogSvc.Query(c, &blog.QueryFilter{Published: boolPtr(true)}, nil, core.Page{Number: 1, Size: 3})
	if err != nil {
		return errors.Wrap(err, "querying latest posts")
	}

	return site.render(ctx, "home", site.appName, map[string]interface{}{
		"Featured": featured.Results,
		"Events":   events.Results,
		"Posts":    posts.Results,
	})
}

func (site *siteApi) properties(ctx echo.Context) error {
	filter := new(property.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	if err := filter.Clean(); err != nil {
		return err
	}
	filter.Published = boolPtr(true)

	props, err := site.propSvc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying properties")
	}
	return site.render(ctx, "properties", "Properties", map[string]interface{}{
		"Filter": filter,
		"Paged":  props,
		"Types":  property.Types,
	})
}

func (site *siteApi) property(ctx echo.Context) error {
	prop, err := site.propSvc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"), true /* publishedOnly */)
	if err != nil {
		return errors.Wrap(err, "finding property by slug")
	}
	return site.render(ctx, "property", prop.Title, prop)
}

func (site *siteApi) developer(ctx echo.Context) error {
	detail, err := developerDetail(ctx, site.devSvc, site.propSvc, ctx.Param("slug"))
	if err != nil {
		return err
	}
	return site.render(ctx, "developer", detail.Developer.Name, detail)
}

func (site *siteApi) blog(ctx echo.Context) error {
	filter := new(blog.QueryFilter)
	page, ordering, err := listParams(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()
	filter.Published = boolPtr(true)

	posts, err := site.blogSvc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return site.render(ctx, "blog", "Blog", map[string]interface{}{"Tag": filter.Tag, "Paged": posts})
}

func (site *siteApi) post(ctx echo.Context) error {
	post, err := site.blogSvc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"), true /* publishedOnly */)
	if err != nil {
		return errors.Wrap(err, "finding post by slug")
	}
	return site.render(ctx, "post", post.Title, post)
}

func (site *siteApi) events(ctx echo.Context) error {
	c := ctx.Request().Context()
	all := core.Page{Number: 1, Size: core.MaxPageSize}

	upcoming, err := site.eventSvc.Query(c, &event.QueryFilter{When: event.WhenUpcoming, Published: boolPtr(true)}, nil, all)
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	past, err := site.eventSvc.Query(c, &event.QueryFilter{When: event.WhenPast, Published: boolPtr(true)}, nil, core.Page{Number: 1, Size: 6})
	if err != nil {
		return errors.Wrap(err, "querying past events")
	}
	return site.render(ctx, "events", "Events", map[string]interface{}{
		"Upcoming": upcoming.Results,
		"Past":     past.Results,
	})
}
