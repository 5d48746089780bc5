package atomic_float

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicFloat(t *testing.T) {
	Convey("When an AtomicFloat64 is zero valued", t, func() {
		So((&AtomicFloat64{}).AtomicRead(), ShouldEqual, 0.0)
	})

	Convey("When an AtomicFloat64 is set", t, func() {
		af := &AtomicFloat64{}
		af.AtomicSet(0.2)

		Convey("It reads back its initial value", func() {
			So(af.AtomicRead(), ShouldEqual, 0.2)
		})

		Convey("Set overwrites the value", func() {
			af.AtomicSet(-3.5)
			So(af.AtomicRead(), ShouldEqual, -3.5)
		})

		Convey("Update blends the old value", func() {
			stored := af.AtomicUpdate(func(old float64) float64 { return 0.5*old + 1 })
			So(stored, ShouldAlmostEqual, 1.1)
			So(af.AtomicRead(), ShouldAlmostEqual, 1.1)
		})
	})

	Convey("When multiple writers update the value concurrently", t, func() {
		af := &AtomicFloat64{}
		numOps := 3000
		numWriters := 50

		start := make(chan struct{})
		wg := sync.WaitGroup{}
		wg.Add(numWriters * 2)
		writer := func(delta float64) {
			<-start
			for i := 0; i < numOps; i++ {
				af.AtomicUpdate(func(old float64) float64 { return old + delta })
			}
			wg.Done()
		}
		for i := 0; i < numWriters; i++ {
			go writer(1.0)
			go writer(-1.0)
		}

		close(start)
		wg.Wait()
		So(af.AtomicRead(), ShouldEqual, 0.0)
	})
}
