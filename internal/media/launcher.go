// Package media hands article links and images to the desktop.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/validation"
)

type Kind int

const (
	KindPage Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "page"
}

var (
	ErrNoLink  = errors.New("article has no link")
	ErrNoImage = errors.New("article has no image")
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true, ".avif": true,
}

// Image viewers tried in order before falling back to the default opener.
var imageViewers = map[string][]string{
	"linux":  {"imv", "sxiv", "feh", "eog"},
	"darwin": {},
}

// DetectKind looks at the path extension only; query strings are ignored.
func DetectKind(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return KindPage
	}
	if imageExtensions[strings.ToLower(path.Ext(u.Path))] {
		return KindImage
	}
	return KindPage
}

type Launcher struct {
	opener      string
	imageViewer string
	validator   *validation.URLValidator
	start       func(name string, args ...string) error
}

func NewLauncher(cfg config.MediaConfig) *Launcher {
	opener := cfg.DefaultOpener
	if opener == "" {
		opener = defaultOpener(runtime.GOOS)
	}

	viewer := cfg.ImageViewer
	if viewer == "" {
		viewer = findCommand(imageViewers[runtime.GOOS]...)
	}

	return &Launcher{
		opener:      opener,
		imageViewer: viewer,
		validator:   validation.NewURLValidator(),
		start:       startDetached,
	}
}

func (l *Launcher) OpenArticle(a news.Article) error {
	if !a.HasURL() {
		return ErrNoLink
	}
	return l.Open(a.URL)
}

func (l *Launcher) OpenImage(a news.Article) error {
	if a.ImageURL == "" {
		return ErrNoImage
	}
	return l.Open(a.ImageURL)
}

// Open validates rawURL and starts the matching program without waiting
// for it.
func (l *Launcher) Open(rawURL string) error {
	link, err := l.validator.ValidateLink(rawURL)
	if err != nil {
		return fmt.Errorf("refusing to open %q: %w", rawURL, err)
	}

	kind := DetectKind(link)
	name, args := l.command(kind, link)
	debuglog.WithFields(map[string]any{"kind": kind.String(), "program": name}).Debugf("opening %s", link)

	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (l *Launcher) command(kind Kind, link string) (string, []string) {
	if kind == KindImage && l.imageViewer != "" {
		return l.imageViewer, []string{link}
	}
	switch l.opener {
	case "start", "rundll32":
		// cmd /c start would hand the url to the shell.
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	default:
		return l.opener, []string{link}
	}
}

func defaultOpener(goos string) string {
	switch goos {
	case "darwin":
		return "open"
	case "windows":
		return "rundll32"
	default:
		return "xdg-open"
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
