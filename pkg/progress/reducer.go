package progress

// Reduce 纯状态转换：(state, event) → (state, render)
// 不接触任何计时器，调用方根据返回状态中的开关同步计时器
func Reduce(s Session, ev Event, st Settings) (Session, RenderModel) {
	switch ev.Kind {
	case EventStart:
		s = start(s)

	case EventCancel:
		if s.Active {
			s.Cancelled = true
		}
		s = teardown(s)
		s.Result = invalidate(s.Result)

	case EventClose, EventDownloadClick:
		s = teardown(s)
		s.Result = invalidate(s.Result)

	case EventTick:
		s = tick(s, ev.Source, st)

	case EventTranslationDispatched:
		// 序号单调递增，晚到的旧请求不能顶替更新的请求
		if ev.Seq <= s.Result.Seq {
			break
		}
		s.Result = Result{
			Open:    true,
			Pending: true,
			Seq:     ev.Seq,
			Kind:    ev.JobKind,
		}

	case EventTranslationArrived:
		if s.Accepts(ev.Seq) {
			s.Result.Pending = false
			s.Result.Open = true
			s.Result.Records = ev.Records
		}

	case EventCloseResult:
		s.Result = invalidate(s.Result)
		s.Result.Open = false
		s.Result.Records = nil

	case EventMissingInput:
		s.Result.Warning = ev.Warning
		s.Result.Kind = ev.JobKind
	}

	return s, Render(s, st)
}

func start(s Session) Session {
	s.Active = true
	s.Tick = 0
	s.CaptionTicks = 0
	s.StageIndex = 0
	s.Cancelled = false
	s.ProgressTimer = true
	s.CaptionTimer = false
	s.StartDelayArmed = true
	s.Epoch++
	return s
}

// teardown 隐藏弹窗并关闭全部计时器
func teardown(s Session) Session {
	s.Active = false
	s.ProgressTimer = false
	s.CaptionTimer = false
	s.StartDelayArmed = false
	return s
}

// invalidate 使等待中的请求失效，迟到的结果会被丢弃
func invalidate(r Result) Result {
	r.Pending = false
	return r
}

func tick(s Session, source TickSource, st Settings) Session {
	// 已关闭的计时器可能还有一次在途的触发
	if !s.Active {
		return s
	}

	switch source {
	case SourceProgress:
		if !s.ProgressTimer {
			return s
		}
		if s.Tick < st.MaxTicks {
			s.Tick++
		}
		if s.Tick >= st.MaxTicks {
			s.ProgressTimer = false
		}

	case SourceStartDelay:
		if !s.StartDelayArmed {
			return s
		}
		s.StartDelayArmed = false
		s.CaptionTimer = s.CaptionTicks < len(st.Captions)

	case SourceCaption:
		if !s.CaptionTimer {
			return s
		}
		total := len(st.Captions)
		s.CaptionTicks++
		step := min(s.CaptionTicks, total)
		s.StageIndex = max(0, min(step, total-1))
		if step >= total {
			s.CaptionTimer = false
		}
	}
	return s
}
