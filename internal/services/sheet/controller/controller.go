// Package controller owns one sheet's character record and the remote calls
// that replace it.
package controller

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
)

// Failure messages and their catalog keys.
const (
	MsgLoad            = "Failed to load character data"
	MsgNew             = "Failed to load new character data"
	MsgRoll            = "Failed to roll attributes"
	MsgChangeAttribute = "Failed to change attribute"
	MsgSetDetail       = "Failed to set detail"
	MsgDownload        = "Failed to download character data"
	MsgUpload          = "Failed to upload character data"
	MsgUploadNotJSON   = "File must be a JSON file"

	KeyLoad            = "error.load"
	KeyNew             = "error.new"
	KeyRoll            = "error.roll"
	KeyChangeAttribute = "error.change_attribute"
	KeySetDetail       = "error.set_detail"
	KeyDownload        = "error.download"
	KeyUpload          = "error.upload"
	KeyUploadNotJSON   = "error.upload_not_json"
)

// Backend is the character API as the controller uses it.
type Backend interface {
	GetCharacter(ctx context.Context) (client.Record, error)
	NewCharacter(ctx context.Context) (client.Record, error)
	RollAttributes(ctx context.Context) (client.Record, error)
	ChangeAttribute(ctx context.Context, attr client.Attribute) (client.Record, error)
	SetDetail(ctx context.Context, detail client.Detail, value string) (client.Record, error)
	UploadCharacter(ctx context.Context, filename string, content io.Reader) (client.Record, error)
	DownloadCharacter(ctx context.Context) (client.Download, error)
}

// Controller serializes state transitions for one sheet. Remote calls run
// without holding the lock, so calls may overlap; the newest dispatch wins.
type Controller struct {
	backend Backend

	mu     sync.Mutex
	state  State
	latest uint64
	loaded bool
}

// New returns a controller with no character and no call in flight.
func New(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	if state.Character != nil {
		rec := *state.Character
		state.Character = &rec
	}
	return state
}

// Mount loads the character the first time it is called and is a no-op
// afterwards.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.loaded = true
	c.mu.Unlock()
	return c.Load(ctx)
}

// Load fetches the session character.
func (c *Controller) Load(ctx context.Context) error {
	return c.replace(ctx, MsgLoad, KeyLoad, c.backend.GetCharacter)
}

// Retry re-issues Load.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Load(ctx)
}

// NewCharacter replaces the character with defaults.
func (c *Controller) NewCharacter(ctx context.Context) error {
	return c.replace(ctx, MsgNew, KeyNew, c.backend.NewCharacter)
}

// RollAttributes asks the service for fresh scores.
func (c *Controller) RollAttributes(ctx context.Context) error {
	return c.replace(ctx, MsgRoll, KeyRoll, c.backend.RollAttributes)
}

// ChangeAttribute pins attr to 14.
func (c *Controller) ChangeAttribute(ctx context.Context, attr client.Attribute) error {
	return c.replace(ctx, MsgChangeAttribute, KeyChangeAttribute, func(ctx context.Context) (client.Record, error) {
		return c.backend.ChangeAttribute(ctx, attr)
	})
}

// SetDetail writes one detail value.
func (c *Controller) SetDetail(ctx context.Context, detail client.Detail, value string) error {
	return c.replace(ctx, MsgSetDetail, KeySetDetail, func(ctx context.Context) (client.Record, error) {
		return c.backend.SetDetail(ctx, detail, value)
	})
}

// Download fetches the export. The character record is left untouched.
func (c *Controller) Download(ctx context.Context) (client.Download, error) {
	seq := c.start()
	download, err := c.backend.DownloadCharacter(ctx)
	if err != nil {
		log.Printf("download character failed: %v", err)
		c.dispatch(Action{Kind: LoadFailed, Seq: seq, Error: MsgDownload, ErrorKey: KeyDownload})
		return client.Download{}, err
	}
	c.dispatch(Action{Kind: LoadSucceeded, Seq: seq})
	return download, nil
}

// Upload sends a character file. Names without a .json suffix are rejected
// locally and no request is made.
func (c *Controller) Upload(ctx context.Context, filename string, content io.Reader) error {
	if !strings.HasSuffix(filename, ".json") {
		c.dispatch(Action{Kind: Rejected, Error: MsgUploadNotJSON, ErrorKey: KeyUploadNotJSON})
		return nil
	}
	seq := c.start()
	rec, err := c.backend.UploadCharacter(ctx, filename, content)
	if err != nil {
		log.Printf("upload character failed: %v", err)
		action := Action{Kind: LoadFailed, Seq: seq, Error: MsgUpload, ErrorKey: KeyUpload}
		if message := client.ServerMessage(err); message != "" {
			action.Error = message
			action.ErrorKey = ""
		}
		c.dispatch(action)
		return err
	}
	c.dispatch(Action{Kind: LoadSucceeded, Seq: seq, Record: &rec})
	return nil
}

// UploadUnreadable records an upload whose form could not be read, such as
// one over the size limit. No request is made.
func (c *Controller) UploadUnreadable() {
	c.dispatch(Action{Kind: Rejected, Error: MsgUpload, ErrorKey: KeyUpload})
}

func (c *Controller) replace(ctx context.Context, message, key string, call func(context.Context) (client.Record, error)) error {
	seq := c.start()
	rec, err := call(ctx)
	if err != nil {
		log.Printf("%s: %v", strings.ToLower(message), err)
		c.dispatch(Action{Kind: LoadFailed, Seq: seq, Error: message, ErrorKey: key})
		return err
	}
	c.dispatch(Action{Kind: LoadSucceeded, Seq: seq, Record: &rec})
	return nil
}

func (c *Controller) start() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	seq := c.latest
	c.state = Reduce(c.state, c.latest, Action{Kind: LoadStarted, Seq: seq})
	return seq
}

func (c *Controller) dispatch(action Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, c.latest, action)
}
