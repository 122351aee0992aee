package application

import "testing"

func TestAdvanceTo(t *testing.T) {
	a := &Application{Step: 2, Status: StatusPending}

	if err := a.AdvanceTo(1); err == nil {
		t.Error("expected error moving backwards")
	}
	if err := a.AdvanceTo(2); err != nil {
		t.Errorf("same step should be allowed: %v", err)
	}
	if err := a.AdvanceTo(4); err != nil || a.Step != 4 {
		t.Errorf("advance: step=%d err=%v", a.Step, err)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"approve pending", StatusPending, StatusApproved, false},
		{"reject pending", StatusPending, StatusRejected, false},
		{"back to pending", StatusPending, StatusPending, true},
		{"approved is terminal", StatusApproved, StatusRejected, true},
		{"rejected is terminal", StatusRejected, StatusApproved, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Application{Status: tt.from}
			err := a.Transition(tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeKeepsUnsetSections(t *testing.T) {
	s := Sections{PersonalInfo: Section{"name": "Robin"}}
	s.Merge(Sections{Employment: Section{"employer": "Acme"}})

	if s.PersonalInfo["name"] != "Robin" || s.Employment["employer"] != "Acme" {
		t.Errorf("merge = %+v", s)
	}
}
