package executor

import (
	"github.com/HuichuanLI/play-with-data-base/plan"
	"github.com/HuichuanLI/play-with-data-base/storage"
)

// aggState is the running state of one aggregate function for one group.
type aggState interface {
	update(d storage.Datum) error
	result() storage.Datum
}

// newAggState builds the state for one aggregate call. argTP is the type of
// the aggregate argument, ignored for count.
func newAggState(fn plan.AggFunc, argTP storage.FieldTP) aggState {
	switch fn {
	case plan.AggCount:
		return &countState{}
	case plan.AggSum:
		return &sumState{isFloat: argTP == storage.Float}
	case plan.AggMin:
		return &minMaxState{min: true}
	case plan.AggMax:
		return &minMaxState{}
	case plan.AggAvg:
		return &avgState{}
	default:
		return nil
	}
}

type countState struct {
	n int64
}

func (s *countState) update(storage.Datum) error {
	s.n++
	return nil
}

func (s *countState) result() storage.Datum { return storage.NewIntDatum(s.n) }

type sumState struct {
	isFloat bool
	i       int64
	f       float64
}

func (s *sumState) update(d storage.Datum) error {
	if s.isFloat {
		s.f += d.AsFloat()
	} else {
		s.i += d.I
	}
	return nil
}

func (s *sumState) result() storage.Datum {
	if s.isFloat {
		return storage.NewFloatDatum(s.f)
	}
	return storage.NewIntDatum(s.i)
}

type minMaxState struct {
	min bool
	has bool
	v   storage.Datum
}

func (s *minMaxState) update(d storage.Datum) error {
	if !s.has {
		s.has = true
		s.v = d
		return nil
	}
	cmp, err := d.Compare(s.v)
	if err != nil {
		return err
	}
	if (s.min && cmp < 0) || (!s.min && cmp > 0) {
		s.v = d
	}
	return nil
}

func (s *minMaxState) result() storage.Datum { return s.v }

type avgState struct {
	n   int64
	sum float64
}

func (s *avgState) update(d storage.Datum) error {
	s.n++
	s.sum += d.AsFloat()
	return nil
}

func (s *avgState) result() storage.Datum {
	if s.n == 0 {
		return storage.NewFloatDatum(0)
	}
	return storage.NewFloatDatum(s.sum / float64(s.n))
}
