package volcspeech

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultWSURL  = "wss://openspeech.bytedance.com"
	defaultUserID = "reason-desktop"

	defaultHandshakeTimeout = 30 * time.Second
)

// Client holds the credentials and transport configuration shared by
// the recognition and synthesis paths. It never reaches into ambient
// environment or filesystem state; everything is injected here.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	appID       string
	accessToken string

	// Path-specific resource ids, with a legacy shared fallback kept
	// for configurations written before the split.
	ttsResourceID    string
	asrResourceID    string
	legacyResourceID string

	voice  string
	userID string
	wsURL  string

	dialer *websocket.Dialer
}

// Option configures a Client.
type Option func(*clientConfig)

// New creates a speech client.
//
// appID and accessToken are the application credentials from the
// provider console; they are sent as the X-Api-App-Key and
// X-Api-Access-Key headers on every connection.
func New(appID, accessToken string, opts ...Option) *Client {
	config := &clientConfig{
		appID:       appID,
		accessToken: accessToken,
		voice:       DefaultVoice,
		userID:      defaultUserID,
		wsURL:       defaultWSURL,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.dialer == nil {
		config.dialer = &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
		}
	}
	return &Client{config: config}
}

// DefaultVoice is the voice selector used when a request does not name one.
const DefaultVoice = "zh_female_tianmeixiaoyuan_moon_bigtts"

// WithTTSResource sets the resource id for the synthesis path.
func WithTTSResource(resourceID string) Option {
	return func(c *clientConfig) {
		c.ttsResourceID = resourceID
	}
}

// WithASRResource sets the resource id for the recognition path.
func WithASRResource(resourceID string) Option {
	return func(c *clientConfig) {
		c.asrResourceID = resourceID
	}
}

// WithLegacyResource sets the shared resource id used as a fallback
// when a path-specific id is not configured.
func WithLegacyResource(resourceID string) Option {
	return func(c *clientConfig) {
		c.legacyResourceID = resourceID
	}
}

// WithVoice sets the default voice selector.
func WithVoice(voice string) Option {
	return func(c *clientConfig) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithUserID sets the user identifier sent in request payloads.
func WithUserID(userID string) Option {
	return func(c *clientConfig) {
		c.userID = userID
	}
}

// WithEndpoint sets the WebSocket base URL.
//
// Default: wss://openspeech.bytedance.com
func WithEndpoint(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithDialer sets a custom WebSocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = dialer
	}
}

func (c *Client) ttsResource() string {
	if c.config.ttsResourceID != "" {
		return c.config.ttsResourceID
	}
	return c.config.legacyResourceID
}

func (c *Client) asrResource() string {
	if c.config.asrResourceID != "" {
		return c.config.asrResourceID
	}
	return c.config.legacyResourceID
}

// wsHeaders returns the custom handshake headers required before the
// protocol handshake: application key, access key, resource id and the
// freshly generated connection id.
func (c *Client) wsHeaders(resourceID, connectID string) http.Header {
	headers := http.Header{}
	headers.Set("X-Api-App-Key", c.config.appID)
	headers.Set("X-Api-Access-Key", c.config.accessToken)
	if resourceID != "" {
		headers.Set("X-Api-Resource-Id", resourceID)
	}
	headers.Set("X-Api-Connect-Id", connectID)
	return headers
}

// dial opens the WebSocket connection for one session. A rejected
// HTTP-level handshake is reported with its status code.
func (c *Client) dial(ctx context.Context, path, resourceID string) (Transport, string, error) {
	connectID := uuid.New().String()
	headers := c.wsHeaders(resourceID, connectID)

	conn, resp, err := c.config.dialer.DialContext(ctx, c.config.wsURL+path, headers)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			return nil, "", &Error{
				Kind:       KindTransport,
				Message:    "websocket connect failed: " + err.Error() + ": " + string(body),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, "", newTransportError("websocket connect failed: " + err.Error())
	}
	return conn, connectID, nil
}
