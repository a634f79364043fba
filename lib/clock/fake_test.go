// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(3 * time.Second)
	if got := c.Now().Sub(epoch); got != 3*time.Second {
		t.Fatalf("elapsed after Advance = %v, want 3s", got)
	}
}

func TestFake_ConcurrentAdvance(t *testing.T) {
	c := Fake(epoch)
	var group sync.WaitGroup
	for range 8 {
		group.Add(1)
		go func() {
			defer group.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	group.Wait()
	if got := c.Now().Sub(epoch); got != 8*time.Second {
		t.Errorf("elapsed after concurrent Advance = %v, want 8s", got)
	}
}

func TestReal_Advances(t *testing.T) {
	c := Real()
	first := c.Now()
	if c.Now().Before(first) {
		t.Error("Real().Now() went backwards")
	}
}
