// Package progress 驱动视频翻译进度弹窗。
//
// 每个浏览器会话对应一个 Controller，它在单独的 Goroutine 中串行处理
// 用户事件、进度条计时器、字幕计时器和启动延迟。状态转换由纯函数 Reduce
// 完成，Render 把状态投影为页面需要的 RenderModel；Controller 只负责
// 按状态中的开关启停真实的 time.Ticker/time.Timer，并把渲染结果推送给订阅者。
//
// 两个时钟互相独立：
//
//	progress  每 TickInterval 推进一格，满 MaxTicks 后停止并显示下载按钮
//	caption   启动延迟结束后开始，每 CaptionInterval 推进一条字幕，全部完成后停止
//
// 翻译请求带有会话内递增的序号，Cancel、Close、DownloadClick、CloseResult
// 以及更新的请求都会使旧序号失效，迟到的结果会被丢弃。
package progress
