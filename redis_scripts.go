package guidestore

import "github.com/redis/go-redis/v9"

// Lua scripts run by RedisStore. Record values and filter criteria always
// travel in KEYS/ARGV; nothing is spliced into the script text.

// insertDocScript adds a document under a fresh id.
// KEYS: docs hash, order list, [fold hash]. ARGV: id, doc, [fold].
// Returns 0 when the id is taken.
var insertDocScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
  return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
if KEYS[3] then
  redis.call('HSET', KEYS[3], ARGV[1], ARGV[3])
end
return 1
`)

// insertUserScript adds a user and claims its username.
// KEYS: docs hash, order list, username hash. ARGV: id, username, doc.
// Returns -1 for a taken id, -2 for a taken username.
var insertUserScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
  return -1
end
if redis.call('HSETNX', KEYS[3], ARGV[2], ARGV[1]) == 0 then
  return -2
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// replaceDocScript overwrites an existing document.
// KEYS: docs hash, fold hash. ARGV: id, doc, fold. Returns 0 for unknown ids.
var replaceDocScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
return 1
`)

// removeDocScript deletes a document and its order/fold entries.
// KEYS: docs hash, order list, fold hash. ARGV: id.
var removeDocScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('LREM', KEYS[2], 0, ARGV[1])
return 1
`)

// listDocsScript returns every document in insertion order.
// KEYS: order list, docs hash.
var listDocsScript = redis.NewScript(`
local ids = redis.call('LRANGE', KEYS[1], 0, -1)
local out = {}
for _, id in ipairs(ids) do
  local raw = redis.call('HGET', KEYS[2], id)
  if raw then
    table.insert(out, raw)
  end
end
return out
`)

// queryTutorialsScript is the Redis form of TutorialFilter.Match.
// KEYS: order list, docs hash, fold hash.
// ARGV: category, model, search; an empty value disables that criterion.
// search arrives lowercased and is compared against the stored fold entry
// ({"t": lower(title), "s": lower(summary)}) as a plain substring.
var queryTutorialsScript = redis.NewScript(`
local category, model, search = ARGV[1], ARGV[2], ARGV[3]
local ids = redis.call('LRANGE', KEYS[1], 0, -1)
local out = {}
for _, id in ipairs(ids) do
  local raw = redis.call('HGET', KEYS[2], id)
  if raw then
    local doc = cjson.decode(raw)
    local keep = true
    if category ~= '' and doc['category'] ~= category then
      keep = false
    end
    if keep and model ~= '' and doc['model'] ~= model then
      keep = false
    end
    if keep and search ~= '' then
      local fold = cjson.decode(redis.call('HGET', KEYS[3], id) or '{}')
      local title = fold['t'] or ''
      local summary = fold['s'] or ''
      if not string.find(title, search, 1, true) and not string.find(summary, search, 1, true) then
        keep = false
      end
    end
    if keep then
      table.insert(out, raw)
    end
  end
end
return out
`)
