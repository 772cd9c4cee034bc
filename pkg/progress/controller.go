package progress

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrClosed 控制器已关闭
var ErrClosed = errors.New("progress controller closed")

// Transition 一次事件处理前后的状态
type Transition struct {
	Before Session
	After  Session
	Model  RenderModel
}

// Option 控制器选项
type Option func(*Controller)

// WithInvalidateHook 等待中的翻译请求失效时回调（在独立 Goroutine 中执行）
func WithInvalidateHook(fn func(seq uint64)) Option {
	return func(c *Controller) { c.onInvalidate = fn }
}

type applyRequest struct {
	ev    Event
	reply chan Transition
}

// Controller 单个会话的事件循环
type Controller struct {
	settings     Settings
	onInvalidate func(seq uint64)

	events  chan Event
	applies chan applyRequest
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu     sync.Mutex
	latest RenderModel
	subs   map[int]chan RenderModel
	nextID int
}

// NewController 创建控制器并启动事件循环
func NewController(st Settings, opts ...Option) (*Controller, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		settings: st,
		events:   make(chan Event, 16),
		applies:  make(chan applyRequest),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		subs:     make(map[int]chan RenderModel),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.latest = Render(Session{}, st)

	go c.run()
	return c, nil
}

// Settings 控制器配置
func (c *Controller) Settings() Settings {
	return c.settings
}

// Dispatch 异步投递事件
func (c *Controller) Dispatch(ev Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Apply 同步处理事件并返回处理前后的状态
func (c *Controller) Apply(ctx context.Context, ev Event) (Transition, error) {
	req := applyRequest{ev: ev, reply: make(chan Transition, 1)}

	select {
	case c.applies <- req:
	case <-c.done:
		return Transition{}, ErrClosed
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}

	select {
	case t := <-req.reply:
		return t, nil
	case <-ctx.Done():
		return Transition{}, ctx.Err()
	}
}

// Latest 最近一次渲染结果
func (c *Controller) Latest() RenderModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Subscribe 订阅渲染结果
// 通道只保留最新一份，消费慢时中间结果被覆盖；控制器关闭后通道被关闭
func (c *Controller) Subscribe() (<-chan RenderModel, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan RenderModel, 1)
	select {
	case <-c.stopped:
		close(ch)
		return ch, func() {}
	default:
	}

	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.latest

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close 停止事件循环并关闭全部订阅
func (c *Controller) Close() {
	c.once.Do(func() { close(c.done) })
	<-c.stopped
}

// Done 控制器关闭后返回的通道被关闭
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

func (c *Controller) publish(model RenderModel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = model
	for _, ch := range c.subs {
		// 丢弃未读的旧结果，只保留最新
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- model:
		default:
		}
	}
}

// clocks 按状态中的开关持有真实计时器
type clocks struct {
	progress *time.Ticker
	caption  *time.Ticker
	delay    *time.Timer
	epoch    uint64
}

func (k *clocks) progressC() <-chan time.Time {
	if k.progress == nil {
		return nil
	}
	return k.progress.C
}

func (k *clocks) captionC() <-chan time.Time {
	if k.caption == nil {
		return nil
	}
	return k.caption.C
}

func (k *clocks) delayC() <-chan time.Time {
	if k.delay == nil {
		return nil
	}
	return k.delay.C
}

func (k *clocks) stopAll() {
	if k.progress != nil {
		k.progress.Stop()
		k.progress = nil
	}
	if k.caption != nil {
		k.caption.Stop()
		k.caption = nil
	}
	if k.delay != nil {
		k.delay.Stop()
		k.delay = nil
	}
}

// sync 让真实计时器与状态中的开关一致；Epoch 变化时全部重建
func (k *clocks) sync(s Session, st Settings) {
	if s.Epoch != k.epoch {
		k.stopAll()
		k.epoch = s.Epoch
	}

	switch {
	case s.ProgressTimer && k.progress == nil:
		k.progress = time.NewTicker(st.TickInterval)
	case !s.ProgressTimer && k.progress != nil:
		k.progress.Stop()
		k.progress = nil
	}

	switch {
	case s.CaptionTimer && k.caption == nil:
		k.caption = time.NewTicker(st.CaptionInterval())
	case !s.CaptionTimer && k.caption != nil:
		k.caption.Stop()
		k.caption = nil
	}

	switch {
	case s.StartDelayArmed && k.delay == nil:
		k.delay = time.NewTimer(st.StartDelay)
	case !s.StartDelayArmed && k.delay != nil:
		k.delay.Stop()
		k.delay = nil
	}
}

func (c *Controller) run() {
	var state Session
	var k clocks

	defer func() {
		k.stopAll()
		if state.Result.Pending {
			c.invalidated(state.Result.Seq)
		}

		c.mu.Lock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
		close(c.stopped)
		c.mu.Unlock()
	}()

	step := func(ev Event) Transition {
		before := state
		after, model := Reduce(state, ev, c.settings)
		state = after

		if before.Result.Pending && !after.Accepts(before.Result.Seq) &&
			!(ev.Kind == EventTranslationArrived && ev.Seq == before.Result.Seq) {
			c.invalidated(before.Result.Seq)
		}
		if ev.Kind == EventTranslationDispatched && !after.Accepts(ev.Seq) {
			c.invalidated(ev.Seq)
		}

		k.sync(state, c.settings)
		c.publish(model)
		return Transition{Before: before, After: after, Model: model}
	}

	for {
		select {
		case <-c.done:
			return

		case ev := <-c.events:
			step(ev)

		case req := <-c.applies:
			req.reply <- step(req.ev)

		case <-k.progressC():
			step(Tick(SourceProgress))

		case <-k.captionC():
			step(Tick(SourceCaption))

		case <-k.delayC():
			// 一次性计时器触发后即失效
			k.delay = nil
			step(Tick(SourceStartDelay))
		}
	}
}

func (c *Controller) invalidated(seq uint64) {
	if c.onInvalidate == nil {
		return
	}
	log.Printf("请求 #%d 已失效", seq)
	go c.onInvalidate(seq)
}
