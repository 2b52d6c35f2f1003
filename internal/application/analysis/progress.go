package analysis

import (
	"sync"
	"time"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// Tick is one status shown After the call started.
type Tick struct {
	After  time.Duration
	Status string
}

const (
	StatusConnectingFunction = "正在连接云服务..."
	StatusConnecting         = "正在连接服务器..."
	StatusParsing            = "正在解析结果..."
	StatusDone               = "完成了！"
)

var waitingStatuses = []string{
	"正在理解你的感受...",
	"我在认真倾听...",
	"你的情绪值得被看见...",
	"让我为你整理一下...",
	"我在为你准备回应...",
	"你的感受很重要...",
	"我在仔细思考...",
	"让我为你找到合适的建议...",
	"你的情绪正在被理解...",
	"我在为你准备温暖的回应...",
	"你的每一句话都很重要...",
	"让我为你整理情绪...",
	"我在认真分析...",
	"你的感受正在被看见...",
	"让我为你准备一些建议...",
	"我在为你思考...",
	"你的情绪值得被认真对待...",
}

// DefaultSchedule is 18 statuses: first at 0ms, then 300ms, 800ms and every 500ms up to 8300ms.
func DefaultSchedule(first string) []Tick {
	ticks := make([]Tick, 0, len(waitingStatuses)+1)
	ticks = append(ticks, Tick{After: 0, Status: first})
	for i, s := range waitingStatuses {
		ticks = append(ticks, Tick{After: time.Duration(300+500*i) * time.Millisecond, Status: s})
	}
	return ticks
}

// FirstStatus is the opening status for a transport mode.
func FirstStatus(mode emotion.Mode) string {
	if mode == emotion.ModeFunction {
		return StatusConnectingFunction
	}
	return StatusConnecting
}

// Simulator replays a fixed schedule of reassuring statuses while a request is outstanding.
// It knows nothing about the request itself.
type Simulator struct {
	schedule []Tick
}

func NewSimulator(schedule []Tick) *Simulator {
	return &Simulator{schedule: schedule}
}

// Start fires onTick from a single goroutine, in schedule order, until the schedule runs out or
// the subscription is cancelled. Every Start replays from the first tick.
func (s *Simulator) Start(onTick func(status string)) *Subscription {
	sub := &Subscription{stop: make(chan struct{}), done: make(chan struct{})}
	go sub.run(s.schedule, onTick)
	return sub
}

// Subscription is a running schedule.
type Subscription struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Cancel stops pending ticks and waits for the tick goroutine to exit, so no tick fires after it
// returns. It is safe to call more than once but must not be called from inside onTick.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() { close(sub.stop) })
	<-sub.done
}

// Done is closed once the goroutine has exited.
func (sub *Subscription) Done() <-chan struct{} { return sub.done }

func (sub *Subscription) run(schedule []Tick, onTick func(string)) {
	defer close(sub.done)
	start := time.Now()
	for _, tick := range schedule {
		if wait := tick.After - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-sub.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		select {
		case <-sub.stop:
			return
		default:
		}
		onTick(tick.Status)
	}
}
