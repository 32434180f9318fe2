// Package golearn converts between proxfill's Frame and
// github.com/sjwhitworth/golearn/base DenseInstances, so a completed
// dataset can feed golearn models directly.
package golearn

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/typing"
)

// ToDenseInstances converts a Frame into golearn DenseInstances. Columns
// typed numerical by preds become float attributes, the rest categorical.
// The class column, usually the imputation target, must exist in f. Null
// cells are not representable in DenseInstances; complete the frame
// first.
func ToDenseInstances(f *frame.Frame, preds typing.Predictions, class string) (*base.DenseInstances, error) {
	if _, ok := f.ColumnByName(class); !ok {
		return nil, fmt.Errorf("golearn: class column %q not in frame", class)
	}
	attrs := make([]base.Attribute, len(f.Schema().Columns))
	for i, cs := range f.Schema().Columns {
		if preds[cs.Name] == typing.Numerical {
			attrs[i] = base.NewFloatAttribute(cs.Name)
		} else {
			ca := new(base.CategoricalAttribute)
			ca.SetName(cs.Name)
			attrs[i] = ca
		}
	}
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		specs[i] = inst.AddAttribute(a)
	}
	if err := inst.Extend(f.Rows()); err != nil {
		return nil, err
	}

	for r := 0; r < f.Rows(); r++ {
		for c, cs := range f.Schema().Columns {
			col, _ := f.ColumnByName(cs.Name)
			if preds[cs.Name] == typing.Numerical {
				if v, ok := frame.Float(col, r); ok {
					inst.Set(specs[c], r, base.PackFloatToBytes(v))
				}
			} else if m, ok := frame.Modality(col, r); ok {
				inst.Set(specs[c], r, attrs[c].GetSysValFromString(m))
			}
		}
	}
	for i, cs := range f.Schema().Columns {
		if cs.Name == class {
			if err := inst.AddClassAttribute(attrs[i]); err != nil {
				return nil, err
			}
		}
	}
	return inst, nil
}

// FromDenseInstances converts golearn DenseInstances into a Frame. Float
// attributes map to float columns, everything else to string columns.
func FromDenseInstances(inst *base.DenseInstances) (*frame.Frame, error) {
	attrs := inst.AllAttributes()
	schema := frame.Schema{Columns: make([]frame.ColumnSchema, len(attrs))}
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		k := frame.KindString
		if _, ok := a.(*base.FloatAttribute); ok {
			k = frame.KindFloat
		}
		schema.Columns[i] = frame.ColumnSchema{Name: a.GetName(), Type: k, Nullable: true}
		spec, err := inst.GetAttribute(a)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}
	f := frame.New(schema)
	_, nrows := inst.Size()
	for r := 0; r < nrows; r++ {
		f.AppendNullRow()
		for c, cs := range schema.Columns {
			if cs.Type == frame.KindFloat {
				_ = f.SetCell(r, cs.Name, base.UnpackBytesToFloat(inst.Get(specs[c], r)))
			} else {
				_ = f.SetCell(r, cs.Name, specs[c].GetAttribute().GetStringFromSysVal(inst.Get(specs[c], r)))
			}
		}
	}
	return f, nil
}
