package sqlinline

const QInsertJob = `--sql 36d769c5-fb49-4087-a2a9-f9160a673a6f
insert into generation_jobs(
  id,
  project_id,
  owner_id,
  status,
  model,
  input_file_ids,
  system_prompt,
  user_prompt,
  locale,
  retry_count,
  max_retries,
  error_message,
  created_at,
  updated_at
) values (
  $1::uuid,
  $2::uuid,
  $3::uuid,
  $4::text,
  $5::text,
  $6::uuid[],
  $7::text,
  $8::text,
  $9::text,
  $10::int,
  $11::int,
  '',
  now(),
  now()
);
`

const jobColumns = `
  id,
  project_id,
  owner_id,
  status,
  model,
  input_file_ids,
  system_prompt,
  user_prompt,
  locale,
  retry_count,
  max_retries,
  error_message,
  result_deck_id,
  created_at,
  started_at,
  completed_at,
  updated_at
`

const QSelectJobByID = `--sql 413fddf3-0e71-456e-8ece-5f6bc24547e6
select` + jobColumns + `
from generation_jobs
where id = $1::uuid
limit 1;
`

const QSelectJobForOwner = `--sql 68db29f0-1809-4ac2-b9d7-80c371185546
select` + jobColumns + `
from generation_jobs
where id = $1::uuid and owner_id = $2::uuid
limit 1;
`

const QListJobsByProject = `--sql 1e6c271b-8677-4ad0-a3e4-3c6f2400b725
select` + jobColumns + `
from generation_jobs
where project_id = $1::uuid
order by created_at desc;
`

const QLockJob = `--sql 840b6ac7-e3d7-4c48-97cf-6e1340b41091
select` + jobColumns + `
from generation_jobs
where id = $1::uuid
for update;
`

const QMarkJobProcessing = `--sql be6d2c70-63f0-42bd-934d-6af3c40c109f
update generation_jobs
set status = 'PROCESSING',
    started_at = coalesce(started_at, $2::timestamptz),
    updated_at = now()
where id = $1::uuid
  and status = 'QUEUED';
`

const QMarkJobFailed = `--sql 4d20178d-1660-48a2-acce-1b7ff6ad844c
update generation_jobs
set status = 'FAILED',
    error_message = $2::text,
    completed_at = $3::timestamptz,
    updated_at = now()
where id = $1::uuid
  and status in ('QUEUED', 'PROCESSING');
`

const QUpdateJob = `--sql 9b26d91f-62af-4592-b0d9-0a06fbb6ee3c
update generation_jobs
set status = $2::text,
    retry_count = $3::int,
    error_message = $4::text,
    result_deck_id = $5::uuid,
    started_at = $6::timestamptz,
    completed_at = $7::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QSelectStuckJobs = `--sql b18df31c-af8b-405a-8bad-ceaad1798708
select` + jobColumns + `
from generation_jobs
where status = 'PROCESSING'
  and started_at is not null
  and started_at < $1::timestamptz
order by started_at asc;
`
