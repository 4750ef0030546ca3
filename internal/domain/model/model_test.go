package model_test

import (
	"testing"

	"github.com/okian/scorecard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOwner(t *testing.T) {
	Convey("Given delegation and checklist records", t, func() {
		Convey("When a doer is set", func() {
			d := model.Delegation{AssigneeName: "asha", DoerName: "Ravi"}
			c := model.ChecklistItem{AssigneeName: "asha", DoerName: "Ravi"}

			Convey("Then the doer should own the task", func() {
				So(d.Owner(), ShouldEqual, "Ravi")
				So(c.Owner(), ShouldEqual, "Ravi")
			})
		})

		Convey("When the doer is blank", func() {
			d := model.Delegation{AssigneeName: "asha", DoerName: "   "}

			Convey("Then the assignee should own the task", func() {
				So(d.Owner(), ShouldEqual, "asha")
			})
		})
	})
}

func TestSnapshotCounts(t *testing.T) {
	Convey("Given a snapshot", t, func() {
		s := model.Snapshot{
			Users:       []model.User{{Username: "a"}, {Username: "b"}},
			Delegations: []model.Delegation{{ID: "d1"}},
			Orders: []model.Order{
				{ID: "o1", Items: []model.OrderItem{{}, {}}},
				{ID: "o2", Items: []model.OrderItem{{}}},
			},
		}

		Convey("Then counts should cover every collection", func() {
			c := s.Counts()
			So(c["users"], ShouldEqual, 2)
			So(c["delegations"], ShouldEqual, 1)
			So(c["checklists"], ShouldEqual, 0)
			So(c["orders"], ShouldEqual, 2)
			So(c["order_items"], ShouldEqual, 3)
		})
	})
}
