// Package renderer renders set-overlap (Venn/Euler) diagrams by driving a
// headless Chromium instance.
//
// The actual geometric layout is delegated to the venn.js library (and its
// d3 dependency), which only runs inside a browser. The renderer owns the
// problem of running that DOM-dependent code outside a user-facing browser:
//
//   - a shared browser instance is launched lazily, reference-counted across
//     concurrent render calls, and closed when the last call releases it;
//   - each render call gets its own isolated page session with the layout
//     scripts injected, guaranteed to be closed on every exit path;
//   - the diagrams of a batch are laid out sequentially inside the page with
//     per-diagram failure isolation (one bad diagram never aborts siblings);
//   - exceptions thrown inside the page are flattened to plain
//     {name, message, stack} records at the boundary and rebound to native
//     Go error values on the way out.
//
// # Usage
//
//	r, err := renderer.New()
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	outcomes, err := r.Render(ctx, diagrams, renderer.Options{Screenshot: true})
//	if err != nil {
//	    return err // setup failure: nothing was rendered
//	}
//	for i, o := range outcomes {
//	    if o.Err != nil {
//	        log.Warn("diagram failed", "index", i, "err", o.Err)
//	        continue
//	    }
//	    os.WriteFile(fmt.Sprintf("%s.svg", o.Result.ID), []byte(o.Result.SVG), 0o644)
//	}
//
// A fulfilled call always returns exactly one outcome per input diagram, in
// input order. Only setup failures (browser launch, navigation, script
// injection) reject the whole call.
package renderer
