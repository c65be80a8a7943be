package raid

import "context"

// InitRAID configures the engine for scheme, validating the §3 shape
// constraints and writing an ACTIVE header to every disk (spec §4.6).
func (e *Engine) InitRAID(ctx context.Context, scheme Scheme) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classSpec)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	e.stateMu.Lock()
	if e.scheme != None {
		e.stateMu.Unlock()
		return ErrAlreadyInit
	}
	if !shapeValid(scheme, e.cfg) {
		e.stateMu.Unlock()
		return ErrShapeMismatch
	}
	e.scheme = scheme
	for i := range e.watermark {
		e.watermark[i] = 0
	}
	e.stateMu.Unlock()

	debugf("init_raid: scheme=%s disks=%d", scheme, e.cfg.Disks)

	for d := 1; d <= e.cfg.Disks; d++ {
		if err := e.writeHeaderForDisk(d); err != nil {
			return err
		}
	}
	return nil
}

// DestroyRAID unconfigures the engine, writing an inactive header to every
// disk while preserving each disk's broken bit (spec §4.6).
func (e *Engine) DestroyRAID(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classSpec)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	e.stateMu.Lock()
	if e.scheme == None {
		e.stateMu.Unlock()
		return ErrNoRaid
	}
	e.scheme = None
	for i := range e.watermark {
		e.watermark[i] = 0
	}
	e.stateMu.Unlock()

	debugf("destroy_raid")

	for d := 1; d <= e.cfg.Disks; d++ {
		if err := e.writeHeaderForDisk(d); err != nil {
			return err
		}
	}
	return nil
}

// DiskFail marks disk as broken, resetting its watermark, and persists its
// header (spec §4.6).
func (e *Engine) DiskFail(ctx context.Context, disk int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classSpec)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	if disk < 1 || disk > e.cfg.Disks {
		return ErrBadDisk
	}

	e.stateMu.Lock()
	if e.broken[disk-1] {
		e.stateMu.Unlock()
		return ErrAlreadyBroken
	}
	e.broken[disk-1] = true
	e.watermark[disk-1] = 0
	e.stateMu.Unlock()

	debugf("disk_fail_raid: disk=%d", disk)

	return e.writeHeaderForDisk(disk)
}

// DiskRepaired clears disk's broken flag, re-derives its watermark from
// healthy peers (spec §9 open question 2), persists its header, and
// triggers a best-effort rebuild (spec §4.6).
func (e *Engine) DiskRepaired(ctx context.Context, disk int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classSpec)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	if disk < 1 || disk > e.cfg.Disks {
		return ErrBadDisk
	}

	e.stateMu.Lock()
	if !e.broken[disk-1] {
		e.stateMu.Unlock()
		return ErrNotBroken
	}
	newWatermark := 0
	for i := 1; i <= e.cfg.Disks; i++ {
		if i == disk || e.broken[i-1] {
			continue
		}
		if e.watermark[i-1] > newWatermark {
			newWatermark = e.watermark[i-1]
		}
	}
	e.watermark[disk-1] = newWatermark
	e.broken[disk-1] = false
	e.stateMu.Unlock()

	debugf("disk_repaired_raid: disk=%d watermark=%d", disk, newWatermark)

	if err := e.writeHeaderForDisk(disk); err != nil {
		return err
	}
	return e.restoreData(disk)
}

// Info reports logical geometry (spec §4.6, §9 open question 3: the
// literal out-order is blocks, block size, disks).
func (e *Engine) Info(ctx context.Context) (blocks, blockSize, disks int, err error) {
	if err = ctx.Err(); err != nil {
		return 0, 0, 0, err
	}
	release := e.top.enter(classRW)
	defer release()

	if err = e.top.ensureLoaded(e.loadCache); err != nil {
		return 0, 0, 0, err
	}

	scheme := e.currentScheme()
	if scheme == None {
		return 0, 0, 0, ErrNoRaid
	}
	blocks = numLogicalBlocks(scheme, e.cfg)
	blockSize = e.cfg.BSize
	disks = numDataDisks(scheme, e.cfg)
	return blocks, blockSize, disks, nil
}
