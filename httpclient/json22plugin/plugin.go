package json22plugin

import (
	"net/http"
	"slices"

	"github.com/kbukum/gokit-json22/httpclient"
	"github.com/kbukum/gokit-json22/json22"
)

// bodyMethods are the methods whose bodies are serialized as JSON22.
// Other methods, including DELETE, keep the caller's body encoding.
var bodyMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch}

// BodyMethods returns the methods whose request bodies are serialized.
func BodyMethods() []string {
	return slices.Clone(bodyMethods)
}

// Plugin negotiates JSON22 for every request it configures.
type Plugin struct {
	config  Config
	decoder *Decoder
}

var _ httpclient.Plugin = (*Plugin)(nil)

// New creates the plugin. A nil config means zero-value codec options.
func New(cfg *Config, opts ...DecoderOption) *Plugin {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	return &Plugin{
		config:  c,
		decoder: NewDecoder(c.ParseOptions, opts...),
	}
}

// Config returns the plugin configuration.
func (p *Plugin) Config() Config { return p.config }

// Configure implements httpclient.Plugin.
func (p *Plugin) Configure(req *httpclient.OutgoingRequest) {
	configure(req, p.config, p.decoder)
}

// Configure prepares req to speak JSON22 using cfg, independent of any Plugin
// instance.
func Configure(req *httpclient.OutgoingRequest, cfg Config) {
	configure(req, cfg, NewDecoder(cfg.ParseOptions))
}

func configure(req *httpclient.OutgoingRequest, cfg Config, parser httpclient.Parser) {
	if slices.Contains(bodyMethods, req.Method()) {
		req.Type(json22.MimeType)
		serializeOptions := cfg.SerializeOptions
		req.Serialize(func(body any) ([]byte, error) {
			text, err := json22.Marshal(body, serializeOptions)
			if err != nil {
				return nil, err
			}
			return []byte(text), nil
		})
	}
	req.Accept(json22.MimeType)
	req.Buffer(true)
	req.Parse(parser)
}
