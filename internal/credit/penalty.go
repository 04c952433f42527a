package credit

// Penalty recovery: after fullPaysPerStage consecutive full scheduled
// payments the add-on is scaled by the factor for the current stage. The last
// stage clears it entirely.
const fullPaysPerStage = 3

var recoveryFactors = [...]float64{0.5, 0.7, 0.8, 0}

// MaxRecoveryStage is the final stage, after which the add-on is zero.
const MaxRecoveryStage = len(recoveryFactors) - 1

// Penalty is the escalation state shared by credit lines and supplier accounts.
type Penalty struct {
	AddOnAPR            float64 `json:"penalty_apr"`
	ConsecutiveFullPays int     `json:"consecutive_full_pays"`
	RecoveryStage       int     `json:"recovery_stage"` // 0..3
}

// Escalate raises the add-on by step (capped at ceiling) and restarts recovery.
func (p *Penalty) Escalate(step, ceiling float64) {
	p.AddOnAPR += step
	if p.AddOnAPR > ceiling {
		p.AddOnAPR = ceiling
	}
	p.ConsecutiveFullPays = 0
	p.RecoveryStage = 0
}

// RecordFullPayment counts one full scheduled payment and steps recovery when
// a stage completes. Reports whether the add-on was reduced.
func (p *Penalty) RecordFullPayment() bool {
	if p.AddOnAPR <= 0 {
		p.ConsecutiveFullPays = 0
		p.RecoveryStage = 0
		return false
	}
	p.ConsecutiveFullPays++
	if p.ConsecutiveFullPays < fullPaysPerStage {
		return false
	}
	p.ConsecutiveFullPays = 0

	if p.RecoveryStage >= MaxRecoveryStage {
		p.AddOnAPR = 0
		p.RecoveryStage = 0
		return true
	}
	p.AddOnAPR *= recoveryFactors[p.RecoveryStage]
	p.RecoveryStage++
	return true
}
