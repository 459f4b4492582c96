package script

// ProgramBuiltin is executed into every scripted program's host before the
// user source loads (spec §4.4 step 2). It provides small helpers user
// scripts commonly rely on and a default _tick so a user source that only
// wants to react to events (no continuous output) doesn't have to define
// one itself.
const ProgramBuiltin = `
function clamp(x, lo, hi)
  if x < lo then return lo end
  if x > hi then return hi end
  return x
end

function lerp(a, b, t)
  return a + (b - a) * t
end

function _tick(now)
  return {}
end
`

// FixtureBuiltin is executed into a fixture's host before the fixture
// source loads (spec §4.6 step 1).
const FixtureBuiltin = `
function clamp(x, lo, hi)
  if x < lo then return lo end
  if x > hi then return hi end
  return x
end
`
