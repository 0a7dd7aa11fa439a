package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"fmusim/types"
)

// 常量定义（积分控制阈值）
const (
	maxOrder       = 5     // 最高阶数
	maxNewtonIter  = 4     // 单步牛顿迭代上限
	newtonTol      = 0.1   // 牛顿修正量收敛阈值（加权范数）
	defaultSafety  = 0.9   // 步长调整安全系数
	minStepScale   = 0.2   // 最小步长缩减倍数
	failStepScale  = 0.25  // 牛顿失败后的步长缩减倍数
	minValidStep   = 1e-12 // 最小相对步长
	maxRootIter    = 100   // 根查找二分上限
	rootTol        = 1e-12 // 根查找相对时间容差
	jacobianFactor = 1.4901161193847656e-08
)

// maxStepScale 最大步长增长倍数，高阶时收紧以保持稳定
func maxStepScale(order int) float64 {
	if order <= 2 {
		return 2.0
	}
	return 1.5
}

// point 历史点
type point struct {
	t float64
	x []float64
}

// BDF 变阶变步长后向差分法
// 隐式方程用牛顿迭代求解，雅可比矩阵由有限差分得到
// 每个接受步检查事件指示器，跨零时在插值多项式上二分定位
type BDF struct {
	p      Parameters
	nx, nz int

	// 误差控制
	reltol float64   // 相对容差
	atol   []float64 // 绝对容差：标称值 * 相对容差

	// 积分状态
	t    float64   // 当前时间
	x    []float64 // 当前状态
	f0   []float64 // 重启点导数，仅历史只有一个点时使用
	hist []point   // 历史点，最新在前
	h    float64   // 建议步长，0 表示尚未确定
	k    int       // 当前阶数
	nOK  int       // 当前阶数下连续接受步数

	// 事件指示器
	prez []float64
	z    []float64

	// 牛顿迭代工作区
	jac  *mat.Dense
	lu   mat.LU
	fx   []float64
	base []float64
	work []float64

	steps    int // 接受步数
	rejected int // 拒绝步数
}

// NewBDF 创建后向差分求解器
func NewBDF(p Parameters) (Solver, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	b := &BDF{
		p:      p,
		nx:     p.NX,
		nz:     p.NZ,
		reltol: p.Tolerance,
		atol:   make([]float64, p.NX),
		x:      make([]float64, p.NX),
		f0:     make([]float64, p.NX),
		prez:   make([]float64, p.NZ),
		z:      make([]float64, p.NZ),
		fx:     make([]float64, p.NX),
		base:   make([]float64, p.NX),
		work:   make([]float64, p.NX),
	}
	if b.nx > 0 {
		b.jac = mat.NewDense(b.nx, b.nx, nil)
	}
	if status := b.Reset(p.StartTime); status > types.StatusWarning {
		return nil, statusError("Reset", status)
	}
	return b, nil
}

// Reset 从模型重新读取状态、标称值和事件指示器，历史清空从一阶重新开始
func (b *BDF) Reset(time float64) types.Status {
	b.t = time
	status := types.StatusOK
	if b.nx > 0 {
		if status = types.MaxStatus(status, b.p.Model.GetContinuousStates(b.x)); status > types.StatusWarning {
			return status
		}
		if status = types.MaxStatus(status, b.p.Model.GetNominalsOfContinuousStates(b.atol)); status > types.StatusWarning {
			return status
		}
		for i := range b.atol {
			b.atol[i] = math.Abs(b.atol[i]) * b.reltol
			if b.atol[i] == 0 {
				b.atol[i] = b.reltol
			}
		}
		if status = types.MaxStatus(status, b.p.Model.GetContinuousStateDerivatives(b.f0)); status > types.StatusWarning {
			return status
		}
	}
	if status = types.MaxStatus(status, b.p.Model.GetEventIndicators(b.prez)); status > types.StatusWarning {
		return status
	}
	b.restart()
	return status
}

// restart 以当前点为唯一历史点
func (b *BDF) restart() {
	b.hist = append(b.hist[:0], point{t: b.t, x: clone(b.x)})
	b.k = 1
	b.nOK = 0
	b.h = 0
	if d := b.wrms(b.f0, b.x); d > 0 {
		b.h = 0.01 / d
	}
}

// Step 积分到 nextTime，步长不越过 nextTime
func (b *BDF) Step(nextTime float64) (float64, bool, types.Status) {
	status := types.StatusOK
	if b.nx > 0 {
		// 事件处理后状态可能被模型改写
		if status = b.p.Model.GetContinuousStates(b.work); status > types.StatusWarning {
			return b.t, false, status
		}
		if !floats.Equal(b.work, b.x) {
			copy(b.x, b.work)
			if status = types.MaxStatus(status, b.p.Model.GetContinuousStateDerivatives(b.f0)); status > types.StatusWarning {
				return b.t, false, status
			}
			b.restart()
		}
	}
	for nextTime-b.t > minValidStep*math.Max(1, math.Abs(nextTime)) {
		remaining := nextTime - b.t
		if b.h <= 0 {
			b.h = remaining
		}
		h := math.Min(b.h, remaining)
		// 剩余不足一成时直接到达
		clamped := h >= remaining || remaining-h < 0.1*h
		tn := b.t + h
		if clamped {
			h, tn = remaining, nextTime
		}
		xn, errNorm, ok, s := b.attempt(tn)
		if status = types.MaxStatus(status, s); status > types.StatusWarning {
			return b.t, false, status
		}
		if !ok || errNorm > 1 {
			b.rejected++
			if !ok {
				b.p.Logger.Debug("BDF 牛顿迭代失败", "time", tn, "step", h, "err", ErrNotConverged)
				b.h = h * failStepScale
			} else {
				b.h = h * math.Max(minStepScale, defaultSafety*math.Pow(errNorm, -1/float64(b.k+1)))
			}
			if b.k > 1 {
				b.k--
			}
			b.nOK = 0
			if b.h < minValidStep*math.Max(1, math.Abs(b.t)) {
				b.p.Logger.Error("BDF 步长过小", "time", b.t, "step", b.h, "order", b.k, "err", ErrStepTooSmall)
				return b.t, false, types.StatusError
			}
			continue
		}
		if status = types.MaxStatus(status, b.indicators(tn, xn, b.z)); status > types.StatusWarning {
			return b.t, false, status
		}
		if b.crossing(b.z) {
			tr, xr, s := b.locateRoot(tn, xn)
			if status = types.MaxStatus(status, s); status > types.StatusWarning {
				return b.t, false, status
			}
			b.t = tr
			copy(b.x, xr)
			copy(b.prez, b.z)
			if b.nx > 0 {
				if status = types.MaxStatus(status, b.p.Model.GetContinuousStateDerivatives(b.f0)); status > types.StatusWarning {
					return b.t, false, status
				}
			}
			b.restart()
			return tr, true, status
		}
		copy(b.prez, b.z)
		b.accept(tn, xn, h, errNorm, clamped)
	}
	return b.t, false, status
}

// attempt 试探一步，返回新状态与误差范数，ok 为 false 表示牛顿迭代失败
func (b *BDF) attempt(tn float64) ([]float64, float64, bool, types.Status) {
	if b.nx == 0 {
		return b.x, 0, true, types.StatusOK
	}
	k := min(b.k, len(b.hist))
	nodes := make([]float64, k+1)
	nodes[0] = tn
	for j := 1; j <= k; j++ {
		nodes[j] = b.hist[j-1].t
	}
	alpha := derivativeWeights(nodes)
	// 历史项
	rest := make([]float64, b.nx)
	for j := 1; j <= k; j++ {
		floats.AddScaled(rest, alpha[j], b.hist[j-1].x)
	}
	pred := b.predict(tn)
	x := clone(pred)
	status := b.jacobian(tn, x, alpha[0])
	if status > types.StatusWarning {
		return nil, 0, false, status
	}
	if c := b.lu.Cond(); math.IsInf(c, 1) || c > 1/jacobianFactor/jacobianFactor {
		return nil, 0, false, status
	}
	res := mat.NewVecDense(b.nx, nil)
	delta := mat.NewVecDense(b.nx, nil)
	for range maxNewtonIter {
		if status = types.MaxStatus(status, b.rhs(tn, x, b.fx)); status > types.StatusWarning {
			return nil, 0, false, status
		}
		for i := range x {
			res.SetVec(i, b.fx[i]-alpha[0]*x[i]-rest[i])
		}
		if err := b.lu.SolveVecTo(delta, false, res); err != nil {
			return nil, 0, false, status
		}
		floats.Add(x, delta.RawVector().Data)
		if b.wrms(delta.RawVector().Data, x) <= newtonTol {
			floats.SubTo(b.work, x, pred)
			return x, b.wrms(b.work, x) / float64(k+1), true, status
		}
	}
	return nil, 0, false, status
}

// predict 历史多项式外推，只有一个历史点时用导数
func (b *BDF) predict(tn float64) []float64 {
	pred := make([]float64, b.nx)
	m := min(b.k+1, len(b.hist))
	if m == 1 {
		copy(pred, b.hist[0].x)
		floats.AddScaled(pred, tn-b.hist[0].t, b.f0)
		return pred
	}
	nodes := make([]float64, m)
	values := make([][]float64, m)
	for j := range m {
		nodes[j] = b.hist[j].t
		values[j] = b.hist[j].x
	}
	interpolate(nodes, values, tn, pred)
	return pred
}

// jacobian 有限差分构造 alpha0*I - df/dx 并分解
func (b *BDF) jacobian(tn float64, x []float64, alpha0 float64) types.Status {
	status := b.rhs(tn, x, b.base)
	if status > types.StatusWarning {
		return status
	}
	xp := clone(x)
	for j := range b.nx {
		delta := jacobianFactor * math.Max(math.Abs(x[j]), b.atol[j]/b.reltol)
		xp[j] = x[j] + delta
		if status = types.MaxStatus(status, b.rhs(tn, xp, b.fx)); status > types.StatusWarning {
			return status
		}
		for i := range b.nx {
			v := -(b.fx[i] - b.base[i]) / delta
			if i == j {
				v += alpha0
			}
			b.jac.Set(i, j, v)
		}
		xp[j] = x[j]
	}
	b.lu.Factorize(b.jac)
	return status
}

// accept 接受一步并调整步长与阶数
func (b *BDF) accept(tn float64, xn []float64, h, errNorm float64, clamped bool) {
	b.t = tn
	copy(b.x, xn)
	b.hist = append([]point{{t: tn, x: clone(xn)}}, b.hist...)
	if len(b.hist) > maxOrder+1 {
		b.hist = b.hist[:maxOrder+1]
	}
	b.steps++
	scale := maxStepScale(b.k)
	if errNorm > 0 {
		scale = math.Max(minStepScale, math.Min(scale, defaultSafety*math.Pow(errNorm, -1/float64(b.k+1))))
	}
	if clamped && scale >= 1 {
		b.h = math.Max(b.h, h*scale)
	} else {
		b.h = h * scale
	}
	b.nOK++
	if b.nOK > b.k && b.k < maxOrder && len(b.hist) > b.k {
		b.k++
		b.nOK = 0
	}
}

// locateRoot 在 (t, tn] 上二分查找最早的跨零点，返回右端点
func (b *BDF) locateRoot(tn float64, xn []float64) (float64, []float64, types.Status) {
	k := min(b.k, len(b.hist))
	nodes := make([]float64, k+1)
	values := make([][]float64, k+1)
	nodes[0], values[0] = tn, xn
	for j := 1; j <= k; j++ {
		nodes[j], values[j] = b.hist[j-1].t, b.hist[j-1].x
	}
	xr := make([]float64, b.nx)
	zr := make([]float64, b.nz)
	status := types.StatusOK
	lo, hi := b.t, tn
	for i := 0; i < maxRootIter && hi-lo > rootTol*math.Max(1, math.Abs(hi)); i++ {
		mid := lo + (hi-lo)/2
		interpolate(nodes, values, mid, xr)
		if status = types.MaxStatus(status, b.indicators(mid, xr, zr)); status > types.StatusWarning {
			return b.t, nil, status
		}
		if b.crossing(zr) {
			hi = mid
		} else {
			lo = mid
		}
	}
	if hi == tn {
		copy(xr, xn)
	} else {
		interpolate(nodes, values, hi, xr)
	}
	status = types.MaxStatus(status, b.indicators(hi, xr, b.z))
	return hi, xr, status
}

// crossing 任一事件指示器相对上一点跨零
func (b *BDF) crossing(z []float64) bool {
	for i := range z {
		if crossed(b.prez[i], z[i]) {
			return true
		}
	}
	return false
}

// rhs 计算 t 时刻状态 x 的导数
func (b *BDF) rhs(t float64, x, dx []float64) types.Status {
	status := b.p.setTime(t)
	if status > types.StatusWarning || b.nx == 0 {
		return status
	}
	if status = types.MaxStatus(status, b.p.Model.SetContinuousStates(x)); status > types.StatusWarning {
		return status
	}
	return types.MaxStatus(status, b.p.Model.GetContinuousStateDerivatives(dx))
}

// indicators 计算 t 时刻状态 x 的事件指示器，模型停在 (t, x)
func (b *BDF) indicators(t float64, x, z []float64) types.Status {
	status := b.p.setTime(t)
	if status > types.StatusWarning {
		return status
	}
	if b.nx > 0 {
		if status = types.MaxStatus(status, b.p.Model.SetContinuousStates(x)); status > types.StatusWarning {
			return status
		}
	}
	if b.nz == 0 {
		return status
	}
	return types.MaxStatus(status, b.p.Model.GetEventIndicators(z))
}

// wrms 加权均方根范数
func (b *BDF) wrms(v, x []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	w := make([]float64, len(v))
	for i := range v {
		w[i] = v[i] / (b.reltol*math.Abs(x[i]) + b.atol[i])
	}
	return floats.Norm(w, 2) / math.Sqrt(float64(len(v)))
}

// Steps 接受与拒绝的步数
func (b *BDF) Steps() (accepted, rejected int) { return b.steps, b.rejected }

// Free 释放
func (b *BDF) Free() {
	b.hist = nil
	b.jac = nil
}

// derivativeWeights 拉格朗日基函数在 s[0] 处的导数
func derivativeWeights(s []float64) []float64 {
	w := make([]float64, len(s))
	for m := 1; m < len(s); m++ {
		w[0] += 1 / (s[0] - s[m])
	}
	for j := 1; j < len(s); j++ {
		p := 1 / (s[j] - s[0])
		for m := 1; m < len(s); m++ {
			if m != j {
				p *= (s[0] - s[m]) / (s[j] - s[m])
			}
		}
		w[j] = p
	}
	return w
}

// interpolate 拉格朗日插值
func interpolate(s []float64, values [][]float64, tau float64, dst []float64) {
	clear(dst)
	for j := range s {
		l := 1.0
		for m := range s {
			if m != j {
				l *= (tau - s[m]) / (s[j] - s[m])
			}
		}
		floats.AddScaled(dst, l, values[j])
	}
}

func clone(x []float64) []float64 { return append([]float64(nil), x...) }
