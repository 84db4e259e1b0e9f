// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"fmt"
	"io"

	"github.com/invowk/multicall/internal/applet"

	"github.com/shirou/gopsutil/v4/mem"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "free",
		Usage:   "free",
		MinArgs: 0,
		MaxArgs: 0,
		Entry:   applet.MainFunc(freeMain),
	})
}

func freeMain(ctx context.Context, inv *applet.Invocation, _ []string) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("read memory statistics: %w", err)
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("read swap statistics: %w", err)
	}
	writeFree(inv.Stdout, vm, swap)
	return nil
}

// writeFree prints the memory table in kilobytes.
func writeFree(w io.Writer, vm *mem.VirtualMemoryStat, swap *mem.SwapMemoryStat) {
	kb := func(n uint64) uint64 { return kilobytes(n, 1) }

	total, free := kb(vm.Total), kb(vm.Free)
	swapTotal, swapFree := kb(swap.Total), kb(swap.Free)

	fmt.Fprintf(w, "%6s%13s%13s%13s%13s%13s\n", "", "total", "used", "free", "shared", "buffers")
	fmt.Fprintf(w, "%6s%13d%13d%13d%13d%13d\n", "Mem:", total, total-free, free, kb(vm.Shared), kb(vm.Buffers))
	fmt.Fprintf(w, "%6s%13d%13d%13d\n", "Swap:", swapTotal, swapTotal-swapFree, swapFree)
	fmt.Fprintf(w, "%6s%13d%13d%13d\n", "Total:", total+swapTotal, total-free+swapTotal-swapFree, free+swapFree)
}
