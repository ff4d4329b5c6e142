package distroav

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

type prometheusDesc struct {
	CPUUsage *prometheus.Desc
	Memory   struct {
		Total, Used, Usage, Free *prometheus.Desc
	}
	Disk struct {
		Total, Used, Usage, Free *prometheus.Desc
	}
	Net struct {
		SendSpeed, ReceiveSpeed *prometheus.Desc
	}
	Uptime, PluginUp, CapabilityCount, EventSubscribers *prometheus.Desc
}

func (d *prometheusDesc) init() {
	d.CPUUsage = prometheus.NewDesc("cpu_usage", "CPU usage", nil, nil)
	d.Memory.Total = prometheus.NewDesc("memory_total", "Memory total", nil, nil)
	d.Memory.Used = prometheus.NewDesc("memory_used", "Memory used", nil, nil)
	d.Memory.Usage = prometheus.NewDesc("memory_usage", "Memory usage", nil, nil)
	d.Memory.Free = prometheus.NewDesc("memory_free", "Memory free", nil, nil)
	d.Disk.Total = prometheus.NewDesc("disk_total", "Disk total", nil, nil)
	d.Disk.Used = prometheus.NewDesc("disk_used", "Disk used", nil, nil)
	d.Disk.Usage = prometheus.NewDesc("disk_usage", "Disk usage", nil, nil)
	d.Disk.Free = prometheus.NewDesc("disk_free", "Disk free", nil, nil)
	d.Net.SendSpeed = prometheus.NewDesc("net_send_speed", "Net send speed", []string{"name"}, nil)
	d.Net.ReceiveSpeed = prometheus.NewDesc("net_receive_speed", "Net receive speed", []string{"name"}, nil)
	d.Uptime = prometheus.NewDesc("uptime_seconds", "Host uptime", nil, nil)
	d.PluginUp = prometheus.NewDesc("plugin_up", "Plugin running", []string{"plugin", "version"}, nil)
	d.CapabilityCount = prometheus.NewDesc("capability_count", "Registered capabilities", []string{"kind"}, nil)
	d.EventSubscribers = prometheus.NewDesc("event_subscribers", "Event hub subscribers", nil, nil)
}

func (h *Host) Describe(ch chan<- *prometheus.Desc) {
	desc := &h.prometheusDesc
	ch <- desc.CPUUsage
	ch <- desc.Memory.Total
	ch <- desc.Memory.Used
	ch <- desc.Memory.Usage
	ch <- desc.Memory.Free
	ch <- desc.Disk.Total
	ch <- desc.Disk.Used
	ch <- desc.Disk.Usage
	ch <- desc.Disk.Free
	ch <- desc.Net.SendSpeed
	ch <- desc.Net.ReceiveSpeed
	ch <- desc.Uptime
	ch <- desc.PluginUp
	ch <- desc.CapabilityCount
	ch <- desc.EventSubscribers
}

func (h *Host) Collect(ch chan<- prometheus.Metric) {
	desc := &h.prometheusDesc
	if summary := h.Summary(); summary != nil {
		ch <- prometheus.MustNewConstMetric(desc.CPUUsage, prometheus.GaugeValue, summary.CPUUsage)
		ch <- prometheus.MustNewConstMetric(desc.Memory.Total, prometheus.GaugeValue, float64(summary.Memory.Total))
		ch <- prometheus.MustNewConstMetric(desc.Memory.Used, prometheus.GaugeValue, float64(summary.Memory.Used))
		ch <- prometheus.MustNewConstMetric(desc.Memory.Usage, prometheus.GaugeValue, summary.Memory.Usage)
		ch <- prometheus.MustNewConstMetric(desc.Memory.Free, prometheus.GaugeValue, float64(summary.Memory.Free))
		ch <- prometheus.MustNewConstMetric(desc.Disk.Total, prometheus.GaugeValue, float64(summary.HardDisk.Total))
		ch <- prometheus.MustNewConstMetric(desc.Disk.Used, prometheus.GaugeValue, float64(summary.HardDisk.Used))
		ch <- prometheus.MustNewConstMetric(desc.Disk.Usage, prometheus.GaugeValue, summary.HardDisk.Usage)
		ch <- prometheus.MustNewConstMetric(desc.Disk.Free, prometheus.GaugeValue, float64(summary.HardDisk.Free))
		for _, net := range summary.NetWork {
			ch <- prometheus.MustNewConstMetric(desc.Net.SendSpeed, prometheus.GaugeValue, float64(net.SentSpeed), net.Name)
			ch <- prometheus.MustNewConstMetric(desc.Net.ReceiveSpeed, prometheus.GaugeValue, float64(net.ReceiveSpeed), net.Name)
		}
	}
	ch <- prometheus.MustNewConstMetric(desc.Uptime, prometheus.CounterValue, time.Since(h.StartTime).Seconds())
	for _, p := range h.Plugins {
		up := 0.0
		if !p.Disabled {
			switch p.GetState() {
			case task.TASK_STATE_STARTED, task.TASK_STATE_RUNNING, task.TASK_STATE_GOING:
				up = 1
			}
		}
		ch <- prometheus.MustNewConstMetric(desc.PluginUp, prometheus.GaugeValue, up, p.Meta.Name, p.Meta.Version)
	}
	for kind, count := range h.capabilityCounts() {
		ch <- prometheus.MustNewConstMetric(desc.CapabilityCount, prometheus.GaugeValue, float64(count), kind)
	}
	ch <- prometheus.MustNewConstMetric(desc.EventSubscribers, prometheus.GaugeValue, float64(h.Events.SubscriberCount()))
}
