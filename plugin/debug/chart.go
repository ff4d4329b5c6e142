package plugin_debug

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

// one day of one-second samples
const maxCount = 86400

type update struct {
	Ts             int64
	BytesAllocated uint64
	GcPause        uint64
	CPUUser        float64
	CPUSys         float64
	Block          int
	Goroutine      int
	Heap           int
	Mutex          int
	Threadcreate   int
}

type SimplePair struct {
	Ts    uint64
	Value uint64
}

type CPUPair struct {
	Ts   uint64
	User float64
	Sys  float64
}

type PprofPair struct {
	Ts           uint64
	Block        int
	Goroutine    int
	Heap         int
	Mutex        int
	Threadcreate int
}

type DataStorage struct {
	BytesAllocated []SimplePair
	GcPauses       []SimplePair
	CPUUsage       []CPUPair
	Pprof          []PprofPair
}

type consumer struct {
	id uint
	c  chan update
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// chartServer samples the process once per period and feeds every connected
// chart client.
type chartServer struct {
	task.Task
	period time.Duration

	mutex        sync.RWMutex
	data         DataStorage
	lastPause    uint32
	prevUserTime float64
	prevSysTime  float64
	process      *process.Process

	consumersMutex sync.RWMutex
	consumers      []consumer
	lastConsumerID uint
}

func (s *chartServer) Start() error {
	s.process, _ = process.NewProcess(int32(os.Getpid()))
	if s.period <= 0 {
		s.period = time.Second
	}
	s.data.BytesAllocated = make([]SimplePair, 0, maxCount)
	s.data.GcPauses = make([]SimplePair, 0, maxCount)
	s.data.CPUUsage = make([]CPUPair, 0, maxCount)
	s.data.Pprof = make([]PprofPair, 0, maxCount)
	return nil
}

func (s *chartServer) Go() error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-s.Done():
			return s.StopReason()
		case now := <-ticker.C:
			s.sample(now)
		}
	}
}

func (s *chartServer) sample(now time.Time) {
	ts := uint64(now.Unix()) * 1000

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	u := update{
		Ts:           int64(ts),
		Block:        pprof.Lookup("block").Count(),
		Goroutine:    pprof.Lookup("goroutine").Count(),
		Heap:         pprof.Lookup("heap").Count(),
		Mutex:        pprof.Lookup("mutex").Count(),
		Threadcreate: pprof.Lookup("threadcreate").Count(),
	}

	cpuTimes, err := s.process.Times()
	if err != nil {
		cpuTimes = &cpu.TimesStat{}
	}

	s.mutex.Lock()
	s.data.Pprof = append(s.data.Pprof, PprofPair{ts, u.Block, u.Goroutine, u.Heap, u.Mutex, u.Threadcreate})
	if s.prevUserTime != 0 {
		u.CPUUser = cpuTimes.User - s.prevUserTime
		u.CPUSys = cpuTimes.System - s.prevSysTime
		s.data.CPUUsage = append(s.data.CPUUsage, CPUPair{ts, u.CPUUser, u.CPUSys})
	}
	s.prevUserTime = cpuTimes.User
	s.prevSysTime = cpuTimes.System

	u.BytesAllocated = ms.Alloc
	s.data.BytesAllocated = append(s.data.BytesAllocated, SimplePair{ts, ms.Alloc})
	if s.lastPause == 0 || s.lastPause != ms.NumGC {
		u.GcPause = ms.PauseNs[(ms.NumGC+255)%256]
		s.data.GcPauses = append(s.data.GcPauses, SimplePair{ts, u.GcPause})
		s.lastPause = ms.NumGC
	}
	if len(s.data.BytesAllocated) > maxCount {
		s.data.BytesAllocated = s.data.BytesAllocated[len(s.data.BytesAllocated)-maxCount:]
	}
	if len(s.data.GcPauses) > maxCount {
		s.data.GcPauses = s.data.GcPauses[len(s.data.GcPauses)-maxCount:]
	}
	if len(s.data.CPUUsage) > maxCount {
		s.data.CPUUsage = s.data.CPUUsage[len(s.data.CPUUsage)-maxCount:]
	}
	if len(s.data.Pprof) > maxCount {
		s.data.Pprof = s.data.Pprof[len(s.data.Pprof)-maxCount:]
	}
	s.mutex.Unlock()

	s.sendToConsumers(u)
}

func (s *chartServer) sendToConsumers(u update) {
	s.consumersMutex.RLock()
	defer s.consumersMutex.RUnlock()
	for _, c := range s.consumers {
		c.c <- u
	}
}

func (s *chartServer) addConsumer() consumer {
	s.consumersMutex.Lock()
	defer s.consumersMutex.Unlock()
	s.lastConsumerID++
	c := consumer{id: s.lastConsumerID, c: make(chan update)}
	s.consumers = append(s.consumers, c)
	return c
}

func (s *chartServer) removeConsumer(id uint) {
	s.consumersMutex.Lock()
	defer s.consumersMutex.Unlock()
	for i, c := range s.consumers {
		if c.id == id {
			s.consumers = append(s.consumers[:i], s.consumers[i+1:]...)
			return
		}
	}
}

func (s *chartServer) dataHandler(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.data)
}

func (s *chartServer) dataFeedHandler(w http.ResponseWriter, r *http.Request) {
	var lastPing, lastPong time.Time

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		lastPong = time.Now()
		return nil
	})

	// read and discard client messages so pongs get processed
	go func(c *websocket.Conn) {
		for {
			if _, _, err := c.NextReader(); err != nil {
				c.Close()
				return
			}
		}
	}(conn)

	c := s.addConsumer()
	defer func() {
		s.removeConsumer(c.id)
		conn.Close()
	}()

	var i uint
	for u := range c.c {
		if err := conn.WriteJSON(u); err != nil {
			return
		}
		if i++; i%10 == 0 {
			if lastPing.Sub(lastPong) > time.Minute {
				return
			}
			now := time.Now()
			if err := conn.WriteControl(websocket.PingMessage, nil, now.Add(time.Second)); err != nil {
				return
			}
			lastPing = now
		}
	}
}
