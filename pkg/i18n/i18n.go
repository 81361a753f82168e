package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var builtin embed.FS

var (
	mu     sync.RWMutex
	bundle *goi18n.Bundle
)

// Init creates the bundle and loads the embedded locales. Load can add or override
// messages from disk afterwards.
func Init() {
	mu.Lock()
	defer mu.Unlock()

	bundle = goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, _ := builtin.ReadDir("locales")
	for _, e := range entries {
		_, _ = bundle.LoadMessageFileFS(builtin, "locales/"+e.Name())
	}
}

func Load(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if bundle == nil {
		return errors.New("i18n: Init not called")
	}
	_, err := bundle.LoadMessageFile(path)
	return errors.Wrapf(err, "load %s", path)
}

// T localizes messageID for the given Accept-Language values. Unknown ids fall back to
// the id itself so callers always get something printable.
func T(messageID string, data map[string]interface{}, langs ...string) string {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b == nil {
		return messageID
	}

	loc := goi18n.NewLocalizer(b, langs...)
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
