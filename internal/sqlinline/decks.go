package sqlinline

const deckColumns = `
  id,
  project_id,
  owner_id,
  generation_job_id,
  title,
  version,
  content,
  slide_count,
  is_current_version,
  created_at
`

const QInsertDeck = `--sql 416b2b0e-96e2-4aed-bd77-b76dad7a83ff
insert into pitch_decks(
  id,
  project_id,
  owner_id,
  generation_job_id,
  title,
  version,
  content,
  slide_count,
  is_current_version,
  created_at
) values (
  $1::uuid,
  $2::uuid,
  $3::uuid,
  $4::uuid,
  $5::text,
  $6::int,
  $7::jsonb,
  $8::int,
  $9::boolean,
  now()
);
`

const QSelectDeckForOwner = `--sql bbb389c0-9a09-4786-a393-60ddae0eb9bf
select` + deckColumns + `
from pitch_decks
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`

const QSelectCurrentDeck = `--sql ca25f8a6-f900-4b46-9d81-8842557e8695
select` + deckColumns + `
from pitch_decks
where project_id = $1::uuid and is_current_version
limit 1;
`

const QListDeckVersions = `--sql 4440333d-579a-4b65-8417-59110b02224f
select
  id,
  generation_job_id,
  title,
  version,
  slide_count,
  is_current_version,
  created_at
from pitch_decks
where project_id = $1::uuid
order by version desc;
`

const QListDecksByProject = `--sql a904b63a-8965-4807-a716-a4a7becf1f0a
select` + deckColumns + `
from pitch_decks
where project_id = $1::uuid
order by version asc;
`

const QUnsetCurrentDeck = `--sql 98c76b80-f5f3-417c-a120-a0903482fd10
update pitch_decks
set is_current_version = false
where project_id = $1::uuid and is_current_version;
`

const QMaxDeckVersion = `--sql 8dd99e5e-0fd7-4b47-b6ee-34f9f554a0a2
select coalesce(max(version), 0)
from pitch_decks
where project_id = $1::uuid;
`
