package data

import (
	"sync"
	"testing"
	"time"

	"github.com/kerlann/pharmatools/registry/entities"
)

func sampleData() ([]entities.Product, map[string][]entities.Product) {
	swiss := []entities.Product{{ID: "swissmedic-2", Name: "Aspirin Cardio", Source: entities.SourceSwissmedic}}
	fda := []entities.Product{{ID: "fda-2", Name: "Aspirin", Source: entities.SourceFDA}}

	all := append(append([]entities.Product{}, swiss...), fda...)
	bySource := map[string][]entities.Product{
		entities.SourceSwissmedic: swiss,
		entities.SourceFDA:        fda,
	}
	return all, bySource
}

func TestNewContainerIsEmpty(t *testing.T) {
	c := NewContainer()

	if got := c.GetProducts(); len(got) != 0 {
		t.Errorf("expected empty products, got %d", len(got))
	}
	if got := c.GetSources(); len(got) != 0 {
		t.Errorf("expected no sources, got %v", got)
	}
	if !c.GetLastUpdated().IsZero() {
		t.Error("expected zero last-updated time")
	}
	if c.IsUpdating() {
		t.Error("new container should not be updating")
	}
	if c.GetServerStartTime().IsZero() {
		t.Error("expected a server start time")
	}
}

func TestUpdateData(t *testing.T) {
	c := NewContainer()
	all, bySource := sampleData()

	before := time.Now()
	c.UpdateData(all, bySource)

	if got := c.GetProducts(); len(got) != 2 {
		t.Errorf("expected 2 products, got %d", len(got))
	}
	if got := c.GetProductsBySource(entities.SourceSwissmedic); len(got) != 1 {
		t.Errorf("expected 1 swissmedic product, got %d", len(got))
	}
	if got := c.GetProductsBySource("unknown"); len(got) != 0 {
		t.Errorf("expected no products for unknown source, got %d", len(got))
	}

	sources := c.GetSources()
	if len(sources) != 2 || sources[0] != entities.SourceFDA || sources[1] != entities.SourceSwissmedic {
		t.Errorf("expected sorted sources [fda swissmedic], got %v", sources)
	}

	if c.GetLastUpdated().Before(before) {
		t.Error("last-updated not refreshed by UpdateData")
	}
}

func TestBeginUpdateIsExclusive(t *testing.T) {
	c := NewContainer()

	if !c.BeginUpdate() {
		t.Fatal("first BeginUpdate should succeed")
	}
	if c.BeginUpdate() {
		t.Error("second BeginUpdate should fail while an update runs")
	}
	if !c.IsUpdating() {
		t.Error("IsUpdating should report the running update")
	}

	c.EndUpdate()
	if c.IsUpdating() {
		t.Error("IsUpdating should clear after EndUpdate")
	}
	if !c.BeginUpdate() {
		t.Error("BeginUpdate should succeed again after EndUpdate")
	}
}

func TestConcurrentReadersDuringUpdate(t *testing.T) {
	c := NewContainer()
	all, bySource := sampleData()
	c.UpdateData(all, bySource)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					if products := c.GetProducts(); len(products) == 0 {
						t.Error("readers must never observe empty data during a swap")
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		c.UpdateData(all, bySource)
	}
	close(stop)
	wg.Wait()
}
